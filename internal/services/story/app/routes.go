package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	geojson "github.com/paulmach/go.geojson"
	"golang.org/x/net/websocket"

	i18n "github.com/louisbranch/rentpressure/internal/platform/i18n/catalog"
	"github.com/louisbranch/rentpressure/internal/platform/telemetry/metrics"
	"github.com/louisbranch/rentpressure/internal/services/story/catalog"
	"github.com/louisbranch/rentpressure/internal/services/story/dataset"
	"github.com/louisbranch/rentpressure/internal/services/story/domain"
	"github.com/louisbranch/rentpressure/internal/services/story/router"
)

// handlerDeps is what the HTTP routes and story sessions share. Only data
// is required.
type handlerDeps struct {
	data    router.Data
	catalog *catalog.Catalog
	metrics *metrics.Metrics
	bundle  *i18n.Bundle
}

func (d handlerDeps) withDefaults() handlerDeps {
	if d.catalog == nil {
		d.catalog = catalog.Default()
	}
	if d.bundle == nil {
		d.bundle = i18n.Default()
	}
	return d
}

// NewHandler creates the story routes over data.
func NewHandler(data router.Data, m *metrics.Metrics) http.Handler {
	return newHandler(handlerDeps{data: data, metrics: m})
}

func newHandler(deps handlerDeps) http.Handler {
	deps = deps.withDefaults()
	m := deps.metrics

	r := mux.NewRouter()
	r.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)

	r.Handle("/", m.WrapHandler("page", handlers.CompressHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale := deps.bundle.Match(r.Header.Get("Accept-Language"))
		templ.Handler(storyPage(newPageView(deps.bundle, locale, deps.catalog))).ServeHTTP(w, r)
	})))).Methods(http.MethodGet)

	data := r.PathPrefix("/data").Subrouter()
	data.Handle("/cities.json", m.WrapHandler("cities_json", handlers.CompressHandler(citiesJSONHandler(deps)))).Methods(http.MethodGet)
	data.Handle("/cities.geojson", m.WrapHandler("cities_geojson", handlers.CompressHandler(citiesGeoJSONHandler(deps)))).Methods(http.MethodGet)
	data.Handle("/timeline/{city:[a-z0-9_-]+}.geojson", m.WrapHandler("timeline_geojson", handlers.CompressHandler(timelineGeoJSONHandler(deps)))).Methods(http.MethodGet)

	wsHandler := websocket.Handler(func(conn *websocket.Conn) {
		handleWSConn(conn, deps)
	})
	r.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		wsHandler.ServeHTTP(w, r)
	})

	return handlers.LoggingHandler(log.Writer(), r)
}

func citiesJSONHandler(deps handlerDeps) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cities, err := deps.data.Stats(r.Context())
		if err != nil {
			writeDataError(w, "city statistics", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(cities); err != nil {
			log.Printf("story: encode cities: %v", err)
		}
	})
}

func citiesGeoJSONHandler(deps handlerDeps) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cities, err := deps.data.Stats(r.Context())
		if err != nil {
			writeDataError(w, "city statistics", err)
			return
		}
		fc := geojson.NewFeatureCollection()
		for _, city := range cities {
			feature := geojson.NewPointFeature([]float64{city.Center.Lng, city.Center.Lat})
			feature.ID = city.ID
			feature.SetProperty("city", city.Name)
			feature.SetProperty("country", city.Country)
			feature.SetProperty("count", city.ListingCount)
			feature.SetProperty("top", deps.catalog.IsTopCity(city.ID))
			if city.AvgPrice != nil {
				feature.SetProperty("avg_price", *city.AvgPrice)
			}
			fc.AddFeature(feature)
		}
		writeGeoJSON(w, fc)
	})
}

// timelineGeoJSONHandler exports the points active in one year of a
// time-lapse city. Without a year the default slider year is used; years
// outside the city's range are clamped the way the slider clamps them.
func timelineGeoJSONHandler(deps handlerDeps) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cityID := mux.Vars(r)["city"]
		if _, ok := deps.catalog.Timelapse(cityID); !ok {
			http.Error(w, "unknown time-lapse city", http.StatusNotFound)
			return
		}
		year := dataset.DefaultYear
		if raw := strings.TrimSpace(r.URL.Query().Get("year")); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				http.Error(w, "year must be an integer", http.StatusBadRequest)
				return
			}
			year = parsed
		}

		index, err := deps.data.Timeline(r.Context(), cityID)
		if err != nil {
			writeDataError(w, "timeline "+cityID, err)
			return
		}
		year = index.Clamp(year)
		writeGeoJSON(w, timelineFeatures(cityID, year, index.Active(year)))
	})
}

func timelineFeatures(cityID string, year int, points []domain.ListingPoint) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, point := range points {
		feature := geojson.NewPointFeature([]float64{point.Position.Lng, point.Position.Lat})
		feature.ID = point.ID
		feature.SetProperty("city", cityID)
		feature.SetProperty("year", year)
		if point.FirstYear != nil {
			feature.SetProperty("first_year", *point.FirstYear)
		}
		if point.LastYear != nil {
			feature.SetProperty("last_year", *point.LastYear)
		}
		fc.AddFeature(feature)
	}
	return fc
}

func writeGeoJSON(w http.ResponseWriter, fc *geojson.FeatureCollection) {
	body, err := fc.MarshalJSON()
	if err != nil {
		log.Printf("story: marshal geojson: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	_, _ = w.Write(body)
}

func writeDataError(w http.ResponseWriter, name string, err error) {
	switch {
	case errors.Is(err, dataset.ErrNotFound):
		http.Error(w, name+" not found", http.StatusNotFound)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		http.Error(w, name+" unavailable", http.StatusServiceUnavailable)
	default:
		log.Printf("story: load %s: %v", name, err)
		http.Error(w, name+" unavailable", http.StatusInternalServerError)
	}
}
