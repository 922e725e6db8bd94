package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/handaph/alerts-service/internal/alerts"
	"github.com/handaph/alerts-service/internal/push"
	"github.com/handaph/alerts-service/internal/sms"
	"github.com/handaph/alerts-service/internal/store"
	"github.com/handaph/alerts-service/internal/weather"
)

var validate = validator.New()

// Deps bundles the collaborators the HTTP handlers need.
type Deps struct {
	Weather    *weather.Service
	Alerts     alerts.Source
	Dispatcher *alerts.Dispatcher
	SMS        *sms.Gateway
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		coord, err := parseCoordQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snapshot, cached, err := deps.Weather.Current(c.Context(), *coord.Lat, *coord.Lon)
		if err != nil {
			if errors.Is(err, weather.ErrUpstreamUnavailable) {
				return fiber.NewError(fiber.StatusBadGateway, "weather source unavailable")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather data")
		}

		return c.JSON(fiber.Map{
			"cached":  cached,
			"weather": snapshot,
		})
	})

	v1.Get("/weather/forecast", func(c *fiber.Ctx) error {
		var req forecastQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		forecast, err := deps.Weather.Forecast(c.Context(), *req.Coord.Lat, *req.Coord.Lon, req.Days)
		if err != nil {
			if errors.Is(err, weather.ErrUpstreamUnavailable) {
				return fiber.NewError(fiber.StatusBadGateway, "weather source unavailable")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch forecast")
		}

		return c.JSON(fiber.Map{
			"days":     len(forecast),
			"forecast": forecast,
		})
	})

	v1.Get("/weather/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snapshots, err := deps.Weather.History(*req.Coord.Lat, *req.Coord.Lon, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather history for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather history")
		}

		return c.JSON(fiber.Map{
			"from":      req.From,
			"to":        req.To,
			"snapshots": snapshots,
		})
	})

	v1.Get("/alerts", func(c *fiber.Ctx) error {
		coord, err := parseCoordQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		active, err := deps.Alerts.Fetch(c.Context(), *coord.Lat, *coord.Lon)
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, "alerts source unavailable")
		}

		return c.JSON(fiber.Map{
			"alertsCount": len(active),
			"alerts":      active,
		})
	})

	v1.Post("/alerts/dispatch", func(c *fiber.Ctx) error {
		var req dispatchRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		result, err := deps.Dispatcher.Dispatch(c.Context(), req.Lat, req.Lon, req.Subscription)
		if err != nil {
			if errors.Is(err, alerts.ErrMissingCoordinates) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusBadGateway, "failed to fetch alerts")
		}

		return c.JSON(result)
	})

	v1.Post("/sms", func(c *fiber.Ctx) error {
		var req smsRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Type == "" {
			req.Type = string(sms.TypeAlert)
		}

		result, err := deps.SMS.Send(c.Context(), req.PhoneNumber, req.Message, sms.MessageType(req.Type))
		if err != nil {
			switch {
			case errors.Is(err, sms.ErrInvalidPhoneNumber), errors.Is(err, sms.ErrEmptyMessage):
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			case errors.Is(err, sms.ErrMissingCredentials):
				return fiber.NewError(fiber.StatusInternalServerError, "sms service is not configured")
			default:
				return fiber.NewError(fiber.StatusBadGateway, err.Error())
			}
		}

		return c.JSON(result)
	})
}

// coordQuery holds the lat/lon query parameters. Pointers keep 0 (equator,
// meridian) distinguishable from absent.
type coordQuery struct {
	Lat *float64 `validate:"required,gte=-90,lte=90"`
	Lon *float64 `validate:"required,gte=-180,lte=180"`
}

func parseCoordQuery(c *fiber.Ctx) (coordQuery, error) {
	var q coordQuery

	if raw := c.Query("lat"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return q, errors.New("lat must be a number")
		}
		q.Lat = &v
	}
	if raw := c.Query("lon"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return q, errors.New("lon must be a number")
		}
		q.Lon = &v
	}

	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

// forecastQuery holds query parameters for the forecast endpoint.
type forecastQuery struct {
	Coord coordQuery
	Days  int `validate:"gte=1,lte=7"`
}

func (f *forecastQuery) bind(c *fiber.Ctx) error {
	coord, err := parseCoordQuery(c)
	if err != nil {
		return err
	}
	f.Coord = coord

	f.Days = 7
	if raw := c.Query("days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			return errors.New("days must be an integer")
		}
		f.Days = days
	}

	return validate.Struct(f)
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Coord coordQuery
	From  time.Time `validate:"required"`
	To    time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	coord, err := parseCoordQuery(c)
	if err != nil {
		return err
	}
	h.Coord = coord

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	if h.From, err = parseTime(fromStr); err != nil {
		return err
	}
	if h.To, err = parseTime(toStr); err != nil {
		return err
	}

	return validate.Struct(h)
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}

// dispatchRequest is the body of POST /alerts/dispatch.
type dispatchRequest struct {
	Lat          *float64           `json:"lat"`
	Lon          *float64           `json:"lon"`
	Subscription *push.Subscription `json:"subscription"`
}

// smsRequest is the body of POST /sms.
type smsRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	Message     string `json:"message" validate:"required"`
	Type        string `json:"type" validate:"omitempty,oneof=weather risk alert emergency"`
}
