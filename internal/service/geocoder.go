package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Geocoder resolves coordinates to a city name for plan localization.
type Geocoder interface {
	ReverseCity(ctx context.Context, lat, lon float64) (string, error)
}

type restyGeocoder struct {
	client   *resty.Client
	endpoint string
}

// NewGeocoder creates a reverse geocoder against a Nominatim-compatible
// endpoint. An empty endpoint yields a geocoder that always errors; callers
// fall back to their literal default.
func NewGeocoder(endpoint string) Geocoder {
	client := resty.New().
		SetTimeout(5 * time.Second).
		SetHeader("User-Agent", "lifehub-backend/1.0")
	return &restyGeocoder{client: client, endpoint: endpoint}
}

type geocodeResponse struct {
	Address struct {
		City     string `json:"city"`
		Town     string `json:"town"`
		County   string `json:"county"`
		Province string `json:"province"`
		State    string `json:"state"`
	} `json:"address"`
}

func (g *restyGeocoder) ReverseCity(ctx context.Context, lat, lon float64) (string, error) {
	if g.endpoint == "" {
		return "", fmt.Errorf("未配置逆地理编码服务")
	}

	var result geocodeResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"lat":    fmt.Sprintf("%.6f", lat),
			"lon":    fmt.Sprintf("%.6f", lon),
			"format": "json",
		}).
		SetResult(&result).
		Get(g.endpoint)
	if err != nil {
		return "", fmt.Errorf("逆地理编码请求失败: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("逆地理编码服务返回 %d", resp.StatusCode())
	}

	for _, candidate := range []string{
		result.Address.City,
		result.Address.Town,
		result.Address.County,
		result.Address.Province,
		result.Address.State,
	} {
		if candidate != "" {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("逆地理编码结果不含城市")
}
