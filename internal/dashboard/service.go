// Package dashboard assembles per-screen payloads from loaded survey rows,
// applying disclosure control to every figure it returns.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"switching-insights-go/internal/dataset"
	"switching-insights-go/internal/governance"
	"switching-insights-go/internal/logger"
	"switching-insights-go/internal/measures"
	"switching-insights-go/internal/types"
)

var ErrUnknownProduct = errors.New("unknown product")

const (
	Motor = "motor"
	Home  = "home"
)

// Settings are the tunables the screens read. Zero values fall back to the
// defaults in DefaultSettings.
type Settings struct {
	TopN             int
	ProxyFloor       int
	TimeWindowMonths int
	Confidence       float64
	PriorStrength    float64
}

func DefaultSettings() Settings {
	return Settings{
		TopN:             8,
		ProxyFloor:       10,
		TimeWindowMonths: 24,
		Confidence:       0.95,
		PriorStrength:    20,
	}
}

// Source says where a product's extract lives. URL wins over Path.
type Source struct {
	Product string
	Path    string
	URL     string
}

// Service holds the loaded row sets and answers screen queries. It is safe
// for concurrent use.
type Service struct {
	engine   *governance.Engine
	settings Settings
	fetcher  *dataset.Fetcher
	log      *logrus.Entry

	mu   sync.RWMutex
	rows map[string][]types.Respondent
}

func New(engine *governance.Engine, settings Settings, fetcher *dataset.Fetcher, log *logger.Logger) *Service {
	if log == nil {
		log = logger.New()
	}
	return &Service{
		engine:   engine,
		settings: settings,
		fetcher:  fetcher,
		log:      log.Component("dashboard"),
		rows:     map[string][]types.Respondent{},
	}
}

func (s *Service) Engine() *governance.Engine { return s.engine }

func (s *Service) Settings() Settings { return s.settings }

// LoadAll loads every source concurrently. A local file that does not exist
// is skipped with a warning so a service can run with a single product; any
// other failure cancels the remaining loads.
func (s *Service) LoadAll(ctx context.Context, sources []Source) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, src := range sources {
		src := src
		g.Go(func() error {
			log := s.log.WithField("product", src.Product)
			var (
				rows []types.Respondent
				err  error
			)
			switch {
			case src.URL != "":
				if s.fetcher == nil {
					return fmt.Errorf("%s: remote source without a fetcher", src.Product)
				}
				rows, err = s.fetcher.Fetch(ctx, src.URL, productLabel(src.Product))
			case src.Path != "":
				rows, err = dataset.Load(src.Path, productLabel(src.Product))
				if errors.Is(err, fs.ErrNotExist) {
					log.WithField("path", src.Path).Warn("dataset missing, product disabled")
					return nil
				}
			default:
				return nil
			}
			if err != nil {
				return fmt.Errorf("load %s: %w", src.Product, err)
			}
			s.SetRows(src.Product, rows)
			log.WithField("rows", len(rows)).Info("product loaded")
			return nil
		})
	}
	return g.Wait()
}

// productLabel is the display name stored on each respondent.
func productLabel(product string) string {
	if product == "" {
		return ""
	}
	return strings.ToUpper(product[:1]) + product[1:]
}

// SetRows replaces a product's rows.
func (s *Service) SetRows(product string, rows []types.Respondent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[strings.ToLower(product)] = rows
}

// Products lists the loaded products alphabetically.
func (s *Service) Products() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.rows))
	for p := range s.rows {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Rows returns the unfiltered rows for product.
func (s *Service) Rows(product string) ([]types.Respondent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, ok := s.rows[strings.ToLower(product)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProduct, product)
	}
	return rows, nil
}

// Query selects the population a screen is computed over. Insurer empty
// means the whole market.
type Query struct {
	Product string
	Insurer string
	Filter  dataset.Filter
	TopN    int
}

func (s *Service) topN(q Query) int {
	if q.TopN > 0 {
		return q.TopN
	}
	if s.settings.TopN > 0 {
		return s.settings.TopN
	}
	return DefaultSettings().TopN
}

func (s *Service) proxyFloor() int {
	if s.settings.ProxyFloor > 0 {
		return s.settings.ProxyFloor
	}
	return DefaultSettings().ProxyFloor
}

// scope returns the filtered market rows for q. The time window falls back to
// the configured default.
func (s *Service) scope(q Query) ([]types.Respondent, error) {
	rows, err := s.Rows(q.Product)
	if err != nil {
		return nil, err
	}
	f := q.Filter
	if f.TimeWindowMonths == 0 {
		f.TimeWindowMonths = s.settings.TimeWindowMonths
	}
	return f.Apply(rows), nil
}

// Value is a governed figure: the metric with its display verdict. A
// suppressed value is blanked so it cannot leak through the payload.
type Value struct {
	governance.Metric
	Display governance.Decision `json:"display"`
}

func (s *Service) value(r types.Rate, n int) Value {
	d := s.engine.EvaluateDisplay(n)
	if !d.Show {
		r = types.Rate{}
	}
	return Value{Metric: s.engine.Metric(r, n), Display: d}
}

// shown reports whether a population of n respondents may be published.
func (s *Service) shown(n int) bool {
	return s.engine.EvaluateDisplay(n).Show
}

// governMonthly blanks the rates of periods whose base is suppressed. PCW
// usage is judged on the period's shoppers.
func (s *Service) governMonthly(points []measures.MonthRates) []measures.MonthRates {
	for i := range points {
		m := &points[i]
		if !s.shown(m.N) {
			m.ShoppingRate, m.SwitchingRate, m.ShopAndStayRate = types.Rate{}, types.Rate{}, types.Rate{}
		}
		if !s.shown(m.Shoppers) {
			m.PCWUsageRate = types.Rate{}
		}
	}
	return points
}

func (s *Service) governMonthRate(points []measures.MonthRate) []measures.MonthRate {
	for i := range points {
		if !s.shown(points[i].N) {
			points[i].Rate = types.Rate{}
		}
	}
	return points
}

func (s *Service) governPriceByMonth(points []measures.MonthPriceChange) []measures.MonthPriceChange {
	for i := range points {
		m := &points[i]
		if !s.shown(m.N) {
			m.Up, m.Down, m.Unchanged = types.Rate{}, types.Rate{}, types.Rate{}
		}
	}
	return points
}
