package models

// Place is one venue returned by the places provider, enriched with
// the distance from the search point and navigation links.
type Place struct {
	Name           string         `json:"name"`
	Address        string         `json:"address"`
	Rating         float64        `json:"rating"`
	ReviewsCount   int            `json:"reviews_count"`
	Coordinates    Point          `json:"coordinates"`
	Distance       int            `json:"distance"`
	DgisLink       string         `json:"2gis_link"`
	DirectionLinks DirectionLinks `json:"direction_links"`
}

type DirectionLinks struct {
	Google string `json:"google"`
	Yandex string `json:"yandex"`
}

// PlaceSearchResult is one batch lookup: the point we searched around
// and the venues found there.
type PlaceSearchResult struct {
	SearchPoint SearchPoint `json:"search_point"`
	Places      []Place     `json:"places"`
}

type SearchPoint struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Radius int     `json:"radius"`
}
