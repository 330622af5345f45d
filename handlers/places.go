package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/Alex20563/Where2Go/config"
	"github.com/Alex20563/Where2Go/services"
)

func parseFloatQuery(v string) (float64, error) {
	return strconv.ParseFloat(v, 64)
}

// PopularCategories is the fixed list offered to voters when tagging a
// ballot. Values double as the canonical category keys.
var PopularCategories = []string{
	"кафе",
	"ресторан",
	"магазин",
	"банк",
	"больница",
	"кинотеатр",
	"парк",
	"автостоянка",
	"фитнес",
	"супермаркет",
	"бар",
}

// ListCategories returns the selectable place categories
func ListCategories(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"categories": PopularCategories})
}

// NearbyPlaces proxies a direct place search around a point, outside of
// any poll.
func NearbyPlaces(c *fiber.Ctx) error {
	cfg := config.GetConfig()

	latStr := c.Query("lat")
	lonStr := c.Query("lon")
	if latStr == "" || lonStr == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "lat and lon are required",
		})
	}

	lat, err := parseFloatQuery(latStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid lat",
		})
	}
	lon, err := parseFloatQuery(lonStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid lon",
		})
	}

	radius := c.QueryInt("radius", 500)
	if radius <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid radius",
		})
	}

	category := c.Query("category", "кафе")

	minRating := cfg.DefaultMinRating
	if v := c.Query("min_rating"); v != "" {
		parsed, err := parseFloatQuery(v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid min_rating",
			})
		}
		minRating = parsed
	}

	return c.JSON(services.Places().FindNearby(lat, lon, category, radius, minRating))
}
