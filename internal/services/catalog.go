package services

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/dataportal/internal/common"
	"github.com/dmitrijs2005/dataportal/internal/logging"
	"github.com/dmitrijs2005/dataportal/internal/models"
	"github.com/dmitrijs2005/dataportal/internal/repositories/repomanager"
)

// FilterAll disables a category or priority filter.
const FilterAll = "all"

type taskTemplate struct {
	title       string
	description string
}

var taskTemplates = []taskTemplate{
	{"Complete API Documentation", "Finalize the REST API documentation for the new endpoints"},
	{"Review Security Audit", "Analyze and address findings from the quarterly security audit"},
	{"Update User Interface", "Implement new design changes for the dashboard"},
	{"Database Migration", "Migrate legacy data to the new database schema"},
	{"Performance Testing", "Conduct load testing on the production environment"},
	{"Client Presentation", "Prepare slides for the quarterly business review"},
	{"Code Review Process", "Establish new code review guidelines and workflows"},
	{"Training Materials", "Create training content for new team members"},
	{"Backup Verification", "Verify all backup systems are functioning correctly"},
	{"Compliance Check", "Ensure all processes meet regulatory requirements"},
	{"User Feedback Analysis", "Analyze user feedback from the latest feature release"},
	{"Infrastructure Upgrade", "Plan and execute server infrastructure improvements"},
	{"Integration Testing", "Test new third-party service integrations"},
	{"Documentation Review", "Review and update existing technical documentation"},
	{"Quality Assurance", "Perform comprehensive QA testing on new features"},
}

var (
	itemCategories = []string{"Documentation", "Development", "Testing", "Review", "Planning"}
	itemPriorities = []models.Priority{models.PriorityLow, models.PriorityMedium, models.PriorityHigh}
)

const itemsPerOwner = 5

// GenerateItems builds the synthetic catalog: five consecutive templates per
// demo account, ids "<local-part>_<n>", due dates spread around now.
func GenerateItems(now time.Time) []models.WorkItem {
	now = now.UTC()
	items := make([]models.WorkItem, 0, len(common.DemoAccountEmails)*itemsPerOwner)

	for owner, email := range common.DemoAccountEmails {
		prefix, _, _ := strings.Cut(email, "@")
		for i := 0; i < itemsPerOwner; i++ {
			tpl := taskTemplates[owner*itemsPerOwner+i]
			items = append(items, models.WorkItem{
				ID:          prefix + "_" + strconv.Itoa(i+1),
				Title:       tpl.title,
				Description: tpl.description,
				Category:    itemCategories[i%len(itemCategories)],
				Priority:    itemPriorities[i%len(itemPriorities)],
				DueDate:     now.AddDate(0, 0, i*3-10),
				OwnerEmail:  email,
			})
		}
	}
	return items
}

type CatalogService struct {
	storage
	log logging.Logger
	now func() time.Time

	mu sync.Mutex
}

func NewCatalogService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *CatalogService {
	return &CatalogService{
		storage: storage{db: db, repomanager: m},
		log:     log.With("module", "catalog"),
		now:     time.Now,
	}
}

// catalog loads the stored items, generating and persisting them on the
// first read.
func (s *CatalogService) catalog(ctx context.Context) ([]models.WorkItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	store := s.store(s.db)

	var items []models.WorkItem
	ok, err := store.GetJSON(ctx, KeyMockData, &items)
	if err != nil {
		return nil, err
	}
	if ok {
		return items, nil
	}

	items = GenerateItems(s.now())
	if err := store.SetJSON(ctx, KeyMockData, items); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "generated catalog", "items", len(items))
	return items, nil
}

// UserItems returns the items owned by email, in catalog order. Unknown
// emails get an empty list.
func (s *CatalogService) UserItems(ctx context.Context, email string) ([]models.WorkItem, error) {
	items, err := s.catalog(ctx)
	if err != nil {
		return nil, err
	}

	owned := make([]models.WorkItem, 0, itemsPerOwner)
	for _, it := range items {
		if it.OwnerEmail == email {
			owned = append(owned, it)
		}
	}
	s.log.Debug(ctx, "user items", "email", email, "count", len(owned))
	return owned, nil
}

// AllItems returns the whole catalog.
func (s *CatalogService) AllItems(ctx context.Context) ([]models.WorkItem, error) {
	items, err := s.catalog(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.WorkItem{}
	}
	return items, nil
}

// RunQuery is a placeholder for a query engine: the query text is logged
// and ignored, and the result equals UserItems(email).
func (s *CatalogService) RunQuery(ctx context.Context, query, email string) ([]models.WorkItem, error) {
	s.log.Debug(ctx, "run query", "email", email, "query", query)
	return s.UserItems(ctx, email)
}

func matchesFilter(value, filter string) bool {
	return filter == "" || filter == FilterAll || value == filter
}

// FilterItems keeps the items that match f. Search is a case-insensitive
// substring of the title or the description.
func FilterItems(items []models.WorkItem, f models.ItemFilter) []models.WorkItem {
	search := strings.ToLower(f.Search)

	out := make([]models.WorkItem, 0, len(items))
	for _, it := range items {
		if search != "" &&
			!strings.Contains(strings.ToLower(it.Title), search) &&
			!strings.Contains(strings.ToLower(it.Description), search) {
			continue
		}
		if !matchesFilter(it.Category, f.Category) || !matchesFilter(string(it.Priority), f.Priority) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// Categories lists the distinct categories of items in first-seen order.
func Categories(items []models.WorkItem) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(itemCategories))
	for _, it := range items {
		if _, ok := seen[it.Category]; ok {
			continue
		}
		seen[it.Category] = struct{}{}
		out = append(out, it.Category)
	}
	return out
}
