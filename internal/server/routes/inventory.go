package routes

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	platformerrors "github.com/jmgilman/go/errors"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/wheelcache/internal/cache"
	"github.com/any-hub/wheelcache/internal/report"
	"github.com/any-hub/wheelcache/internal/server"
)

// Options 描述库存接口依赖；Now 为空时使用 time.Now。
type Options struct {
	Scanner server.Scanner
	Logger  logrus.FieldLogger
	Now     func() time.Time
}

// RegisterInventoryRoutes 暴露 /-/wheels 与 /-/summary 只读接口，每次请求都会重新扫描缓存。
func RegisterInventoryRoutes(app *fiber.App, opts Options) {
	if app == nil || opts.Scanner == nil {
		return
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	app.Get("/-/wheels", func(c fiber.Ctx) error {
		query, err := parseQuery(c, opts.Now())
		if err != nil {
			return renderInvalidQuery(c, opts.Logger, err)
		}
		inv, err := scan(c, opts.Scanner)
		if err != nil {
			return err
		}
		matched := query.Filter(inv.Records)
		sorted := report.Sorted(matched)
		wheels := make([]wheelPayload, 0, len(sorted))
		for _, record := range sorted {
			wheels = append(wheels, encodeRecord(record))
		}
		return c.JSON(fiber.Map{
			"root":        opts.Scanner.Root(),
			"count":       len(wheels),
			"total_bytes": cache.TotalSize(matched),
			"wheels":      wheels,
		})
	})

	app.Get("/-/summary", func(c fiber.Ctx) error {
		query, err := parseQuery(c, opts.Now())
		if err != nil {
			return renderInvalidQuery(c, opts.Logger, err)
		}
		inv, err := scan(c, opts.Scanner)
		if err != nil {
			return err
		}
		matched := query.Filter(inv.Records)
		total := cache.TotalSize(matched)
		return c.JSON(summaryPayload{
			Count:      len(matched),
			TotalBytes: total,
			TotalHuman: report.HumanSize(total),
			Invalid:    len(inv.Invalid),
		})
	})
}

type wheelPayload struct {
	Name               string    `json:"name"`
	NormalizedName     string    `json:"normalized_name"`
	Version            string    `json:"version"`
	Filename           string    `json:"filename"`
	Path               string    `json:"path"`
	Dir                string    `json:"dir"`
	Link               string    `json:"link,omitempty"`
	Tags               []string  `json:"tags"`
	SizeBytes          int64     `json:"size_bytes"`
	SizeHuman          string    `json:"size_human"`
	LastAccessedAt     time.Time `json:"last_accessed_at"`
	PossibleCreationAt time.Time `json:"possible_creation_at"`
}

type summaryPayload struct {
	Count      int    `json:"count"`
	TotalBytes int64  `json:"total_bytes"`
	TotalHuman string `json:"total_human"`
	Invalid    int    `json:"invalid"`
}

func encodeRecord(record *cache.Record) wheelPayload {
	link, _ := record.OriginLink()
	return wheelPayload{
		Name:               record.Name(),
		NormalizedName:     record.NormalizedName,
		Version:            record.Version.String(),
		Filename:           record.Filename,
		Path:               record.FilePath,
		Dir:                record.Dir,
		Link:               link,
		Tags:               record.Wheel.Tags(),
		SizeBytes:          record.SizeBytes,
		SizeHuman:          report.HumanSize(record.SizeBytes),
		LastAccessedAt:     record.LastAccessedAt,
		PossibleCreationAt: record.PossibleCreationAt,
	}
}

func scan(c fiber.Ctx, scanner server.Scanner) (*cache.Inventory, error) {
	inv, err := scanner.Scan(c.Context())
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "scan wheel cache: "+err.Error())
	}
	return inv, nil
}

func renderInvalidQuery(c fiber.Ctx, logger logrus.FieldLogger, err error) error {
	if logger != nil {
		logger.WithFields(logrus.Fields{
			"action":     "inventory_query",
			"request_id": server.RequestID(c),
		}).WithError(err).Warn("invalid inventory query")
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":   "invalid_query",
		"message": err.Error(),
	})
}

func parseQuery(c fiber.Ctx, now time.Time) (cache.Query, error) {
	args := c.Request().URI().QueryArgs()
	var selectors []string
	for _, raw := range args.PeekMulti("selector") {
		if value := strings.TrimSpace(string(raw)); value != "" {
			selectors = append(selectors, value)
		}
	}

	days := 0
	if raw := strings.TrimSpace(string(args.Peek("not_accessed_since"))); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return cache.Query{}, platformerrors.Newf(platformerrors.CodeInvalidInput,
				"not_accessed_since must be an integer number of days, got %q", raw)
		}
		days = parsed
	}
	return cache.NewQuery(selectors, days, now)
}
