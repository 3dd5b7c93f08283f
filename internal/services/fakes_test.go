package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/citivoice/complaint-server/internal/apperr"
	"github.com/citivoice/complaint-server/internal/models"
	"github.com/citivoice/complaint-server/internal/notify"
	"github.com/citivoice/complaint-server/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errInjected = errors.New("injected failure")

type memState struct {
	agencies    map[uuid.UUID]models.Agency
	categories  map[uuid.UUID]models.Category
	users       map[uuid.UUID]models.User
	complaints  map[uuid.UUID]models.Complaint
	assignments map[uuid.UUID]models.Assignment
	history     []models.HistoryEntry
	files       map[uuid.UUID]models.File
}

func (st *memState) clone() *memState {
	c := &memState{
		agencies:    make(map[uuid.UUID]models.Agency, len(st.agencies)),
		categories:  make(map[uuid.UUID]models.Category, len(st.categories)),
		users:       make(map[uuid.UUID]models.User, len(st.users)),
		complaints:  make(map[uuid.UUID]models.Complaint, len(st.complaints)),
		assignments: make(map[uuid.UUID]models.Assignment, len(st.assignments)),
		history:     append([]models.HistoryEntry(nil), st.history...),
		files:       make(map[uuid.UUID]models.File, len(st.files)),
	}
	for k, v := range st.agencies {
		c.agencies[k] = v
	}
	for k, v := range st.categories {
		v.SecondaryAgencyIDs = append([]uuid.UUID(nil), v.SecondaryAgencyIDs...)
		c.categories[k] = v
	}
	for k, v := range st.users {
		c.users[k] = v
	}
	for k, v := range st.complaints {
		c.complaints[k] = v
	}
	for k, v := range st.assignments {
		c.assignments[k] = v
	}
	for k, v := range st.files {
		c.files[k] = v
	}
	return c
}

// referenced reports whether a complaint, assignment or ledger row points at
// the user or agency id, mirroring the RESTRICT foreign keys
func (st *memState) referenced(id uuid.UUID) bool {
	is := func(p *uuid.UUID) bool { return p != nil && *p == id }
	for _, c := range st.complaints {
		if c.AgencyID == id {
			return true
		}
	}
	for _, a := range st.assignments {
		if a.StaffID == id {
			return true
		}
	}
	for _, h := range st.history {
		if is(h.FromUserID) || is(h.ToUserID) || is(h.FromAgencyID) || is(h.ToAgencyID) {
			return true
		}
	}
	return false
}

// memStore is an in-memory repository.Store. WithTx restores the previous
// state when the callback fails. failOn makes the named method fail.
type memStore struct {
	mu       sync.Mutex
	st       *memState
	clock    time.Time
	failOn   map[string]error
	txCount  int
	rollback int
}

var _ repository.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		st:     (&memState{}).clone(),
		clock:  time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		failOn: map[string]error{},
	}
}

// tick returns a strictly increasing timestamp
func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Millisecond)
	return m.clock
}

func (m *memStore) fail(method string) error {
	return m.failOn[method]
}

func (m *memStore) WithTx(ctx context.Context, fn func(ctx context.Context, repo repository.Repository) error) error {
	m.mu.Lock()
	snapshot := m.st.clone()
	m.txCount++
	m.mu.Unlock()

	if err := fn(ctx, m); err != nil {
		m.mu.Lock()
		m.st = snapshot
		m.rollback++
		m.mu.Unlock()
		return err
	}
	return nil
}

// Agencies

func (m *memStore) CreateAgency(_ context.Context, a *models.Agency) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = m.tick()
	a.UpdatedAt = a.CreatedAt
	m.st.agencies[a.ID] = *a
	return nil
}

func (m *memStore) GetAgency(_ context.Context, id uuid.UUID) (*models.Agency, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.st.agencies[id]
	if !ok {
		return nil, apperr.NotFound("Agency not found")
	}
	for _, u := range m.st.users {
		if u.BelongsTo(id) {
			a.UserCount++
		}
	}
	return &a, nil
}

func (m *memStore) ListAgencies(_ context.Context) ([]models.Agency, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Agency, 0, len(m.st.agencies))
	for _, a := range m.st.agencies {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) UpdateAgency(_ context.Context, a *models.Agency) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.st.agencies[a.ID]; !ok {
		return apperr.NotFound("Agency not found")
	}
	a.UpdatedAt = m.tick()
	m.st.agencies[a.ID] = *a
	return nil
}

func (m *memStore) DeleteAgency(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.st.agencies[id]; !ok {
		return apperr.NotFound("Agency not found")
	}
	if m.st.referenced(id) {
		return apperr.Conflict("Agency is still referenced by complaints or their history")
	}
	delete(m.st.agencies, id)
	return nil
}

// Categories

func (m *memStore) CreateCategory(_ context.Context, c *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = m.tick()
	c.UpdatedAt = c.CreatedAt
	stored := *c
	stored.SecondaryAgencyIDs = append([]uuid.UUID(nil), c.SecondaryAgencyIDs...)
	m.st.categories[c.ID] = stored
	return nil
}

func (m *memStore) GetCategory(_ context.Context, id uuid.UUID) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.st.categories[id]
	if !ok {
		return nil, apperr.NotFound("Category not found")
	}
	return m.expandCategory(c), nil
}

func (m *memStore) expandCategory(c models.Category) *models.Category {
	c.SecondaryAgencyIDs = append([]uuid.UUID(nil), c.SecondaryAgencyIDs...)
	if c.PrimaryAgencyID != nil {
		if a, ok := m.st.agencies[*c.PrimaryAgencyID]; ok {
			c.PrimaryAgency = a.Summary()
		}
	}
	for _, id := range c.SecondaryAgencyIDs {
		if a, ok := m.st.agencies[id]; ok {
			c.SecondaryAgencies = append(c.SecondaryAgencies, *a.Summary())
		}
	}
	return &c
}

func (m *memStore) ListCategories(_ context.Context) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Category, 0, len(m.st.categories))
	for _, c := range m.st.categories {
		out = append(out, *m.expandCategory(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) FindCategoryByPrimaryAgency(_ context.Context, agencyID uuid.UUID) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.st.categories {
		if c.PrimaryAgencyID != nil && *c.PrimaryAgencyID == agencyID {
			return m.expandCategory(c), nil
		}
	}
	return nil, apperr.NotFound("Category not found")
}

func (m *memStore) UpdateCategory(_ context.Context, c *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.st.categories[c.ID]; !ok {
		return apperr.NotFound("Category not found")
	}
	c.UpdatedAt = m.tick()
	stored := *c
	stored.PrimaryAgency = nil
	stored.SecondaryAgencies = nil
	stored.SecondaryAgencyIDs = append([]uuid.UUID(nil), c.SecondaryAgencyIDs...)
	m.st.categories[c.ID] = stored
	return nil
}

func (m *memStore) DeleteCategory(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.st.categories[id]; !ok {
		return apperr.NotFound("Category not found")
	}
	delete(m.st.categories, id)
	return nil
}

// Users

func (m *memStore) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateUser"); err != nil {
		return err
	}
	for _, existing := range m.st.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return apperr.Conflict("Email already exists")
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = m.tick()
	u.UpdatedAt = u.CreatedAt
	m.st.users[u.ID] = *u
	return nil
}

func (m *memStore) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.st.users[id]
	if !ok {
		return nil, apperr.NotFound("User not found")
	}
	return &u, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.st.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, apperr.NotFound("User not found")
}

func (m *memStore) FindUsersByEmails(_ context.Context, emails []string) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, u := range m.st.users {
		for _, e := range emails {
			if strings.EqualFold(u.Email, e) {
				out = append(out, u)
				break
			}
		}
	}
	return out, nil
}

func (m *memStore) ListUsers(_ context.Context, filter repository.UserFilter) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, u := range m.st.users {
		if filter.AgencyID != nil && !u.BelongsTo(*filter.AgencyID) {
			continue
		}
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) FindAgencyAdmin(ctx context.Context, agencyID uuid.UUID) (*models.User, error) {
	users, _ := m.ListUsers(ctx, repository.UserFilter{AgencyID: &agencyID, Role: models.RoleAgencyAdmin})
	if len(users) == 0 {
		return nil, apperr.NotFound("User not found")
	}
	return &users[0], nil
}

func (m *memStore) UpdateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdateUser"); err != nil {
		return err
	}
	if _, ok := m.st.users[u.ID]; !ok {
		return apperr.NotFound("User not found")
	}
	u.UpdatedAt = m.tick()
	m.st.users[u.ID] = *u
	return nil
}

func (m *memStore) DeleteUser(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.st.users[id]; !ok {
		return apperr.NotFound("User not found")
	}
	if m.st.referenced(id) {
		return apperr.Conflict("User is still referenced by complaints or their history")
	}
	delete(m.st.users, id)
	return nil
}

// Complaints

func (m *memStore) CreateComplaint(_ context.Context, c *models.Complaint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.st.complaints {
		if existing.TrackingCode == c.TrackingCode {
			return apperr.Conflict("A record with this tracking_code already exists")
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = m.tick()
	c.UpdatedAt = c.CreatedAt
	m.st.complaints[c.ID] = *c
	return nil
}

func (m *memStore) GetComplaint(_ context.Context, id uuid.UUID) (*models.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.st.complaints[id]
	if !ok {
		return nil, apperr.NotFound("Complaint not found")
	}
	return &c, nil
}

func (m *memStore) GetComplaintForUpdate(ctx context.Context, id uuid.UUID) (*models.Complaint, error) {
	return m.GetComplaint(ctx, id)
}

func (m *memStore) detail(c models.Complaint) models.ComplaintDetail {
	d := models.ComplaintDetail{Complaint: c}
	if a, ok := m.st.agencies[c.AgencyID]; ok {
		d.Agency = a.Summary()
	}
	if cat, ok := m.st.categories[c.CategoryID]; ok {
		d.Category = &models.CategorySummary{ID: cat.ID, Name: cat.Name}
	}
	if as, ok := m.st.assignments[c.ID]; ok {
		if u, ok := m.st.users[as.StaffID]; ok {
			as.Staff = u.Summary()
		}
		d.Assignment = &as
	}
	return d
}

func (m *memStore) GetComplaintDetail(_ context.Context, id uuid.UUID) (*models.ComplaintDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.st.complaints[id]
	if !ok {
		return nil, apperr.NotFound("Complaint not found")
	}
	d := m.detail(c)
	return &d, nil
}

func (m *memStore) GetComplaintByTrackingCode(_ context.Context, code string) (*models.ComplaintDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.st.complaints {
		if c.TrackingCode == code {
			d := m.detail(c)
			return &d, nil
		}
	}
	return nil, apperr.NotFound("Complaint not found")
}

func (m *memStore) TrackingCodeExists(_ context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.st.complaints {
		if c.TrackingCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ListComplaints(_ context.Context, filter repository.ComplaintFilter) ([]models.ComplaintDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ComplaintDetail
	for _, c := range m.st.complaints {
		if filter.AgencyID != nil && c.AgencyID != *filter.AgencyID {
			continue
		}
		if filter.StaffID != nil {
			as, ok := m.st.assignments[c.ID]
			if !ok || as.StaffID != *filter.StaffID {
				continue
			}
		}
		out = append(out, m.detail(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) UpdateComplaint(_ context.Context, c *models.Complaint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdateComplaint"); err != nil {
		return err
	}
	if _, ok := m.st.complaints[c.ID]; !ok {
		return apperr.NotFound("Complaint not found")
	}
	c.UpdatedAt = m.tick()
	m.st.complaints[c.ID] = *c
	return nil
}

func (m *memStore) DeleteComplaint(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.st.complaints[id]; !ok {
		return apperr.NotFound("Complaint not found")
	}
	delete(m.st.complaints, id)
	delete(m.st.assignments, id)
	kept := m.st.history[:0]
	for _, h := range m.st.history {
		if h.ComplaintID != id {
			kept = append(kept, h)
		}
	}
	m.st.history = kept
	return nil
}

// Assignments

func (m *memStore) GetAssignment(_ context.Context, complaintID uuid.UUID) (*models.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.st.assignments[complaintID]
	if !ok {
		return nil, apperr.NotFound("Assignment not found")
	}
	if u, ok := m.st.users[a.StaffID]; ok {
		a.Staff = u.Summary()
	}
	return &a, nil
}

func (m *memStore) UpsertAssignment(_ context.Context, a *models.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpsertAssignment"); err != nil {
		return err
	}
	if existing, ok := m.st.assignments[a.ComplaintID]; ok {
		a.ID = existing.ID
	} else if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	m.st.assignments[a.ComplaintID] = *a
	return nil
}

func (m *memStore) DeleteAssignment(_ context.Context, complaintID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.st.assignments, complaintID)
	return nil
}

// History

func (m *memStore) AppendHistory(_ context.Context, h *models.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("AppendHistory"); err != nil {
		return err
	}
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	if h.Timestamp.IsZero() {
		h.Timestamp = m.tick()
	}
	m.st.history = append(m.st.history, *h)
	return nil
}

func (m *memStore) ListHistory(_ context.Context, filter repository.HistoryFilter) ([]models.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListHistory"); err != nil {
		return nil, err
	}
	matches := func(id *uuid.UUID, want uuid.UUID) bool { return id != nil && *id == want }
	var out []models.HistoryEntry
	for _, h := range m.st.history {
		if filter.ComplaintID != nil && h.ComplaintID != *filter.ComplaintID {
			continue
		}
		if filter.AgencyID != nil {
			c := m.st.complaints[h.ComplaintID]
			if c.AgencyID != *filter.AgencyID &&
				!matches(h.FromAgencyID, *filter.AgencyID) && !matches(h.ToAgencyID, *filter.AgencyID) {
				continue
			}
		}
		if filter.StaffID != nil && !matches(h.FromUserID, *filter.StaffID) && !matches(h.ToUserID, *filter.StaffID) {
			continue
		}
		if filter.Action != "" && h.Action != filter.Action {
			continue
		}
		if h.ToAgencyID != nil {
			if a, ok := m.st.agencies[*h.ToAgencyID]; ok {
				h.ToAgency = a.Summary()
			}
		}
		out = append(out, h)
	}
	if !filter.Chronological {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

// Files

func (m *memStore) CreateFile(_ context.Context, f *models.File) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	f.CreatedAt = m.tick()
	m.st.files[f.ID] = *f
	return nil
}

// historyFor returns a complaint's rows oldest first
func (m *memStore) historyFor(complaintID uuid.UUID) []models.HistoryEntry {
	rows, _ := m.ListHistory(context.Background(), repository.HistoryFilter{ComplaintID: &complaintID, Chronological: true})
	return rows
}

// recordingQueue captures enqueued messages
type recordingQueue struct {
	mu   sync.Mutex
	msgs []notify.Message
	err  error
}

func (q *recordingQueue) Enqueue(_ context.Context, msg notify.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.msgs = append(q.msgs, msg)
	return nil
}

func (q *recordingQueue) byTemplate(t notify.Template) []notify.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []notify.Message
	for _, m := range q.msgs {
		if m.Template == t {
			out = append(out, m)
		}
	}
	return out
}

func (q *recordingQueue) reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.msgs = nil
}

var testLinks = Links{API: "https://api.example", Frontend: "https://app.example"}

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// fixture is a populated store: two agencies, each with an admin and a
// staff member, and one category
type fixture struct {
	store    *memStore
	queue    *recordingQueue
	roads    *models.Agency
	water    *models.Agency
	roadsAdm *models.User
	roadsStf *models.User
	waterAdm *models.User
	waterStf *models.User
	potholes *models.Category
}

func newFixture() *fixture {
	ctx := context.Background()
	f := &fixture{store: newMemStore(), queue: &recordingQueue{}}

	f.roads = &models.Agency{Name: "Roads Authority", Acronym: "RA"}
	f.water = &models.Agency{Name: "Water Board", Acronym: "WB", LogoURL: "https://cdn.example/wb.png"}
	_ = f.store.CreateAgency(ctx, f.roads)
	_ = f.store.CreateAgency(ctx, f.water)

	newUser := func(name, email string, role models.Role, agency *models.Agency) *models.User {
		u := &models.User{Name: name, Email: email, Role: role, AgencyID: models.UUIDPtr(agency.ID), IsActive: true, IsVerified: true}
		_ = f.store.CreateUser(ctx, u)
		return u
	}
	f.roadsAdm = newUser("Rita Admin", "rita@roads.example", models.RoleAgencyAdmin, f.roads)
	f.roadsStf = newUser("Sam Staff", "sam@roads.example", models.RoleStaff, f.roads)
	f.waterAdm = newUser("Wanda Admin", "wanda@water.example", models.RoleAgencyAdmin, f.water)
	f.waterStf = newUser("Walt Staff", "walt@water.example", models.RoleStaff, f.water)

	f.potholes = &models.Category{Name: "Potholes", PrimaryAgencyID: models.UUIDPtr(f.roads.ID)}
	_ = f.store.CreateCategory(ctx, f.potholes)
	return f
}

func (f *fixture) complaintService() *ComplaintService {
	svc := NewComplaintService(f.store, f.queue, testLinks, testLogger())
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func (f *fixture) submit(svc *ComplaintService) *models.ComplaintDetail {
	d, err := svc.Create(context.Background(), &models.CreateComplaintRequest{
		Subject:      "Pothole on Main St",
		Description:  "Large pothole near the market",
		CitizenName:  "Ada Citizen",
		CitizenEmail: "ada@example.com",
		CategoryID:   f.potholes.ID,
		AgencyID:     f.roads.ID,
	})
	if err != nil {
		panic(err)
	}
	return d
}
