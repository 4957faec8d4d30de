package taskmate_test

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"

	taskmate "github.com/taskmate/go-taskmate"
)

// MockConfig implements taskmate.Config
type MockConfig struct {
	mock.Mock
}

func (m *MockConfig) GetSigningKey() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetSigningMethod() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetContextKey() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetTokenExpiration() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockConfig) GetTokenLookup() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetAuthScheme() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetIssuer() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetAudience() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

func (m *MockConfig) GetExemptPaths() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

func (m *MockConfig) GetExemptPrefixes() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

func newMockConfig() *MockConfig {
	mockConfig := new(MockConfig)
	mockConfig.On("GetSigningKey").Return("test-signing-key")
	mockConfig.On("GetTokenExpiration").Return(24)
	mockConfig.On("GetIssuer").Return("test-issuer")
	mockConfig.On("GetAudience").Return([]string{"test:audience"})
	return mockConfig
}

// MockNotifier implements taskmate.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) TaskCreated(ctx context.Context, task *taskmate.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockNotifier) TaskUpdated(ctx context.Context, task *taskmate.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockNotifier) TaskStatusChanged(ctx context.Context, task *taskmate.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

// stubUsers is an in-memory identity directory keyed by email
type stubUsers struct {
	taskmate.Users
	byEmail map[string]*taskmate.User
}

func newStubUsers() *stubUsers {
	return &stubUsers{byEmail: map[string]*taskmate.User{}}
}

func (s *stubUsers) GetByEmail(ctx context.Context, email string) (*taskmate.User, error) {
	if user, ok := s.byEmail[email]; ok {
		return user, nil
	}
	return nil, repository.NewRecordNotFound().
		WithMetadata(map[string]any{"email": email})
}

func (s *stubUsers) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*taskmate.User, error) {
	return s.GetByEmail(ctx, email)
}

func (s *stubUsers) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*taskmate.User, error) {
	for _, user := range s.byEmail {
		if user.ID.String() == id {
			return user, nil
		}
	}
	return nil, repository.NewRecordNotFound().
		WithMetadata(map[string]any{"id": id})
}

func (s *stubUsers) CountByRole(ctx context.Context, role taskmate.Role) (int, error) {
	count := 0
	for _, user := range s.byEmail {
		if user.Role == role {
			count++
		}
	}
	return count, nil
}

func (s *stubUsers) CountByRoleTx(ctx context.Context, tx bun.IDB, role taskmate.Role) (int, error) {
	return s.CountByRole(ctx, role)
}

func (s *stubUsers) Register(ctx context.Context, user *taskmate.User) (*taskmate.User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = taskmate.RoleUser
	}
	s.byEmail[user.Email] = user
	return user, nil
}

func (s *stubUsers) RegisterTx(ctx context.Context, tx bun.IDB, user *taskmate.User) (*taskmate.User, error) {
	return s.Register(ctx, user)
}

func (s *stubUsers) ListAll(ctx context.Context) ([]*taskmate.User, error) {
	out := make([]*taskmate.User, 0, len(s.byEmail))
	for _, user := range s.byEmail {
		out = append(out, user)
	}
	return out, nil
}

func (s *stubUsers) Update(ctx context.Context, user *taskmate.User, criteria ...repository.UpdateCriteria) (*taskmate.User, error) {
	for email, existing := range s.byEmail {
		if existing.ID == user.ID && email != user.Email {
			delete(s.byEmail, email)
		}
	}
	s.byEmail[user.Email] = user
	return user, nil
}

// stubTokens is an in-memory append-and-flag ledger
type stubTokens struct {
	taskmate.Tokens
	records []*taskmate.Token
}

func (s *stubTokens) Record(ctx context.Context, user *taskmate.User, tokenString string) (*taskmate.Token, error) {
	record := &taskmate.Token{
		ID:     uuid.New(),
		UserID: user.ID,
		Token:  tokenString,
	}
	s.records = append(s.records, record)
	return record, nil
}

func (s *stubTokens) RecordTx(ctx context.Context, tx bun.IDB, user *taskmate.User, tokenString string) (*taskmate.Token, error) {
	return s.Record(ctx, user, tokenString)
}

func (s *stubTokens) FindAllForUser(ctx context.Context, userID uuid.UUID) ([]*taskmate.Token, error) {
	var out []*taskmate.Token
	for _, record := range s.records {
		if record.UserID == userID {
			out = append(out, record)
		}
	}
	return out, nil
}

func (s *stubTokens) FindAllForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) ([]*taskmate.Token, error) {
	return s.FindAllForUser(ctx, userID)
}

func (s *stubTokens) HasLiveMatch(ctx context.Context, userID uuid.UUID, tokenString string) (bool, error) {
	for _, record := range s.records {
		if record.UserID == userID && record.IsLive() && record.Token == tokenString {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubTokens) InvalidateAllForUser(ctx context.Context, userID uuid.UUID) error {
	for _, record := range s.records {
		if record.UserID == userID {
			record.Expired = true
			record.Revoked = true
		}
	}
	return nil
}

func (s *stubTokens) InvalidateAllForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error {
	return s.InvalidateAllForUser(ctx, userID)
}

func (s *stubTokens) InvalidateEverything(ctx context.Context) error {
	for _, record := range s.records {
		record.Expired = true
		record.Revoked = true
	}
	return nil
}

func (s *stubTokens) liveCount() int {
	count := 0
	for _, record := range s.records {
		if record.IsLive() {
			count++
		}
	}
	return count
}

// stubTasks is an in-memory task store
type stubTasks struct {
	taskmate.Tasks
	byID map[string]*taskmate.Task
}

func newStubTasks() *stubTasks {
	return &stubTasks{byID: map[string]*taskmate.Task{}}
}

func (s *stubTasks) Create(ctx context.Context, task *taskmate.Task, criteria ...repository.InsertCriteria) (*taskmate.Task, error) {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	s.byID[task.ID.String()] = task
	return task, nil
}

func (s *stubTasks) Update(ctx context.Context, task *taskmate.Task, criteria ...repository.UpdateCriteria) (*taskmate.Task, error) {
	s.byID[task.ID.String()] = task
	return task, nil
}

func (s *stubTasks) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*taskmate.Task, error) {
	if task, ok := s.byID[id]; ok {
		return task, nil
	}
	return nil, repository.NewRecordNotFound().
		WithMetadata(map[string]any{"id": id})
}

func (s *stubTasks) ListForUser(ctx context.Context, userID uuid.UUID) ([]*taskmate.Task, error) {
	var out []*taskmate.Task
	for _, task := range s.byID {
		if task.AssignedToID == userID {
			out = append(out, task)
		}
	}
	return out, nil
}

func (s *stubTasks) ListAll(ctx context.Context) ([]*taskmate.Task, error) {
	out := make([]*taskmate.Task, 0, len(s.byID))
	for _, task := range s.byID {
		out = append(out, task)
	}
	return out, nil
}

// stubRepo wires the stubs behind the RepositoryManager interface. RunInTx
// invokes the callback directly; the stubs have no transactional state.
type stubRepo struct {
	users  *stubUsers
	tokens *stubTokens
	tasks  *stubTasks
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		users:  newStubUsers(),
		tokens: &stubTokens{},
		tasks:  newStubTasks(),
	}
}

func (s *stubRepo) Validate() error { return nil }
func (s *stubRepo) MustValidate()   {}

func (s *stubRepo) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func (s *stubRepo) Users() taskmate.Users   { return s.users }
func (s *stubRepo) Tokens() taskmate.Tokens { return s.tokens }
func (s *stubRepo) Tasks() taskmate.Tasks   { return s.tasks }

var _ taskmate.RepositoryManager = (*stubRepo)(nil)
