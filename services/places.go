package services

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/Alex20563/Where2Go/config"
	"github.com/Alex20563/Where2Go/geo"
	"github.com/Alex20563/Where2Go/models"
)

// PlacesClient queries the 2GIS catalog API. Lookups are a single
// attempt with a bounded timeout; any failure degrades to an empty
// place list because recommendations are enrichment, not critical path.
type PlacesClient struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func NewPlacesClient(baseURL, apiKey string, timeout time.Duration) *PlacesClient {
	return &PlacesClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: timeout},
	}
}

var placesClient *PlacesClient

// Places returns the shared client, building it from config on first use.
func Places() *PlacesClient {
	if placesClient == nil {
		cfg := config.GetConfig()
		placesClient = NewPlacesClient(cfg.DgisBaseURL, cfg.DgisAPIKey,
			time.Duration(cfg.PlacesTimeoutSeconds)*time.Second)
	}
	return placesClient
}

// SetPlaces replaces the shared client (tests point it at a fake upstream).
func SetPlaces(c *PlacesClient) {
	placesClient = c
}

type dgisResponse struct {
	Result struct {
		Items []struct {
			Name        string `json:"name"`
			AddressName string `json:"address_name"`
			Point       struct {
				Lat float64 `json:"lat"`
				Lon float64 `json:"lon"`
			} `json:"point"`
			Reviews struct {
				Rating float64 `json:"rating"`
				Count  int     `json:"count"`
			} `json:"reviews"`
		} `json:"items"`
	} `json:"result"`
}

// FindNearby runs one catalog search around the point and returns the
// venues with rating >= minRating, ordered by distance ascending.
func (p *PlacesClient) FindNearby(lat, lon float64, category string, radius int, minRating float64) models.PlaceSearchResult {
	result := models.PlaceSearchResult{
		SearchPoint: models.SearchPoint{Lat: lat, Lon: lon, Radius: radius},
		Places:      []models.Place{},
	}

	params := url.Values{}
	params.Set("q", category)
	params.Set("point", fmt.Sprintf("%v,%v", lon, lat))
	params.Set("radius", strconv.Itoa(radius))
	params.Set("type", "branch")
	params.Set("fields", "items.point,items.reviews,items.address")
	params.Set("key", p.APIKey)

	resp, err := p.Client.Get(p.BaseURL + "/3.0/items?" + params.Encode())
	if err != nil {
		log.Printf("2GIS lookup failed: %v", err)
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("2GIS lookup failed: status %d", resp.StatusCode)
		return result
	}

	var data dgisResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		log.Printf("2GIS response parse failed: %v", err)
		return result
	}

	for _, item := range data.Result.Items {
		if item.Reviews.Rating < minRating {
			continue
		}
		result.Places = append(result.Places, models.Place{
			Name:         item.Name,
			Address:      item.AddressName,
			Rating:       item.Reviews.Rating,
			ReviewsCount: item.Reviews.Count,
			Coordinates:  models.Point{Lat: item.Point.Lat, Lon: item.Point.Lon},
			Distance:     geo.Distance(lat, lon, item.Point.Lat, item.Point.Lon),
			DgisLink:     dgisLink(item.Name),
			DirectionLinks: models.DirectionLinks{
				Google: directionLink("google", item.Point.Lat, item.Point.Lon),
				Yandex: directionLink("yandex", item.Point.Lat, item.Point.Lon),
			},
		})
	}

	sort.SliceStable(result.Places, func(i, j int) bool {
		return result.Places[i].Distance < result.Places[j].Distance
	})

	return result
}

func dgisLink(name string) string {
	return "https://2gis.ru/search/" + url.PathEscape(name)
}

func directionLink(service string, toLat, toLon float64) string {
	switch service {
	case "google":
		return fmt.Sprintf("https://www.google.com/maps/dir/?api=1&destination=%v,%v", toLat, toLon)
	case "yandex":
		return fmt.Sprintf("https://yandex.ru/maps/?rtext=%v%%2C%v&rtt=auto", toLat, toLon)
	}
	return ""
}
