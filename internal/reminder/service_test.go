package reminder

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/nthweekday/internal/model"
	"github.com/hitoshi/nthweekday/internal/ordinal"
	"github.com/hitoshi/nthweekday/internal/security"
)

// --- モック ---

type mockReminderRepo struct {
	createFn        func(ctx context.Context, r *model.Reminder) error
	findByIDFn      func(ctx context.Context, id string) (*model.Reminder, error)
	listFn          func(ctx context.Context) ([]*model.Reminder, error)
	listByOrdinalFn func(ctx context.Context, o ordinal.WeekdayOrdinal, enabledOnly bool) ([]*model.Reminder, error)
	markNotifiedFn  func(ctx context.Context, id string, on time.Time) error
	deleteFn        func(ctx context.Context, id string) (bool, error)
}

func (m *mockReminderRepo) Create(ctx context.Context, r *model.Reminder) error {
	if m.createFn != nil {
		return m.createFn(ctx, r)
	}
	return nil
}
func (m *mockReminderRepo) FindByID(ctx context.Context, id string) (*model.Reminder, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockReminderRepo) List(ctx context.Context) ([]*model.Reminder, error) {
	return m.listFn(ctx)
}
func (m *mockReminderRepo) ListByOrdinal(ctx context.Context, o ordinal.WeekdayOrdinal, enabledOnly bool) ([]*model.Reminder, error) {
	return m.listByOrdinalFn(ctx, o, enabledOnly)
}
func (m *mockReminderRepo) MarkNotified(ctx context.Context, id string, on time.Time) error {
	if m.markNotifiedFn != nil {
		return m.markNotifiedFn(ctx, id, on)
	}
	return nil
}
func (m *mockReminderRepo) Delete(ctx context.Context, id string) (bool, error) {
	return m.deleteFn(ctx, id)
}

type mockGuard struct {
	err error
}

func (m *mockGuard) ValidateURL(rawURL string) error { return m.err }

func newTestService(repo *mockReminderRepo, guard URLValidator) *Service {
	if guard == nil {
		guard = &mockGuard{}
	}
	s := NewService(repo, guard, security.NewLabelSanitizer())
	s.nowFunc = func() time.Time { return time.Date(2024, time.January, 9, 9, 0, 0, 0, time.UTC) }
	return s
}

func assertAPIErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T: %v", err, err)
	}
	if apiErr.Code != code {
		t.Errorf("Code = %q, want %q", apiErr.Code, code)
	}
}

// --- テスト ---

func TestService_Create_Success(t *testing.T) {
	var saved *model.Reminder
	repo := &mockReminderRepo{
		createFn: func(ctx context.Context, r *model.Reminder) error {
			saved = r
			return nil
		},
	}
	svc := newTestService(repo, nil)

	got, err := svc.Create(context.Background(), CreateInput{
		Label:       " <b>燃えるゴミ</b> ",
		WeekOrdinal: 2,
		Weekday:     int(time.Tuesday),
		WebhookURL:  "https://hooks.example.com/abc",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if saved != got {
		t.Error("repository should receive the returned reminder")
	}
	if got.ID == "" {
		t.Error("ID should be generated")
	}
	if got.Label != "燃えるゴミ" {
		t.Errorf("Label = %q, want sanitized %q", got.Label, "燃えるゴミ")
	}
	if !got.Ordinal.Equal(ordinal.New(2, time.Tuesday)) {
		t.Errorf("Ordinal = %v, want 2nd Tuesday", got.Ordinal)
	}
	if !got.Enabled {
		t.Error("new reminder should be enabled")
	}
	if got.CreatedAt.IsZero() || !got.CreatedAt.Equal(got.UpdatedAt) {
		t.Errorf("CreatedAt = %v, UpdatedAt = %v", got.CreatedAt, got.UpdatedAt)
	}
}

func TestService_Create_WithoutWebhook(t *testing.T) {
	// Webhook未指定時はガードを呼ばない
	svc := newTestService(&mockReminderRepo{}, &mockGuard{err: errors.New("should not be called")})

	got, err := svc.Create(context.Background(), CreateInput{Label: "資源ゴミ", WeekOrdinal: 4, Weekday: 5})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if got.WebhookURL != "" {
		t.Errorf("WebhookURL = %q, want empty", got.WebhookURL)
	}
}

func TestService_Create_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		in    CreateInput
		guard URLValidator
		code  string
	}{
		{"暦週0", CreateInput{Label: "a", WeekOrdinal: 0, Weekday: 0}, nil, model.ErrCodeInvalidWeekOrdinal},
		{"暦週6", CreateInput{Label: "a", WeekOrdinal: 6, Weekday: 0}, nil, model.ErrCodeInvalidWeekOrdinal},
		{"曜日-1", CreateInput{Label: "a", WeekOrdinal: 1, Weekday: -1}, nil, model.ErrCodeInvalidWeekday},
		{"曜日7", CreateInput{Label: "a", WeekOrdinal: 1, Weekday: 7}, nil, model.ErrCodeInvalidWeekday},
		{"ラベル空", CreateInput{Label: "   ", WeekOrdinal: 1, Weekday: 0}, nil, model.ErrCodeInvalidLabel},
		{"ラベルがタグのみ", CreateInput{Label: "<script>x</script>", WeekOrdinal: 1, Weekday: 0}, nil, model.ErrCodeInvalidLabel},
		{"ラベル101文字", CreateInput{Label: strings.Repeat("あ", 101), WeekOrdinal: 1, Weekday: 0}, nil, model.ErrCodeInvalidLabel},
		{"Webhookスキーム不正", CreateInput{Label: "a", WeekOrdinal: 1, Weekday: 0, WebhookURL: "ftp://example.com"}, nil, model.ErrCodeInvalidWebhookURL},
		{"Webhookホストなし", CreateInput{Label: "a", WeekOrdinal: 1, Weekday: 0, WebhookURL: "https://"}, nil, model.ErrCodeInvalidWebhookURL},
		{"WebhookがSSRFガードで拒否", CreateInput{Label: "a", WeekOrdinal: 1, Weekday: 0, WebhookURL: "http://10.0.0.1/hook"}, security.NewSSRFGuard(), model.ErrCodeWebhookBlocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockReminderRepo{
				createFn: func(ctx context.Context, r *model.Reminder) error {
					t.Error("Create should not be called on validation error")
					return nil
				},
			}
			svc := newTestService(repo, tt.guard)

			_, err := svc.Create(context.Background(), tt.in)
			assertAPIErrorCode(t, err, tt.code)
		})
	}
}

func TestService_Create_Label100RunesAccepted(t *testing.T) {
	svc := newTestService(&mockReminderRepo{}, nil)

	_, err := svc.Create(context.Background(), CreateInput{Label: strings.Repeat("あ", 100), WeekOrdinal: 5, Weekday: 6})
	if err != nil {
		t.Errorf("100文字のラベルは受け付けるべき: %v", err)
	}
}

func TestService_Create_RepositoryError(t *testing.T) {
	repo := &mockReminderRepo{
		createFn: func(ctx context.Context, r *model.Reminder) error {
			return errors.New("db down")
		},
	}
	svc := newTestService(repo, nil)

	_, err := svc.Create(context.Background(), CreateInput{Label: "a", WeekOrdinal: 1, Weekday: 0})
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		t.Errorf("repository error should not be an APIError: %v", err)
	}
}

func TestService_Get(t *testing.T) {
	want := &model.Reminder{ID: "r-1", Label: "a"}
	repo := &mockReminderRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Reminder, error) {
			if id == "r-1" {
				return want, nil
			}
			return nil, nil
		},
	}
	svc := newTestService(repo, nil)

	got, err := svc.Get(context.Background(), "r-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != want {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}

	_, err = svc.Get(context.Background(), "missing")
	assertAPIErrorCode(t, err, model.ErrCodeReminderNotFound)
}

func TestService_List_SortedByOrdinalThenLabel(t *testing.T) {
	repo := &mockReminderRepo{
		listFn: func(ctx context.Context) ([]*model.Reminder, error) {
			return []*model.Reminder{
				{Label: "z", Ordinal: ordinal.New(3, time.Monday)},
				{Label: "b", Ordinal: ordinal.New(1, time.Saturday)},
				{Label: "a", Ordinal: ordinal.New(1, time.Saturday)},
				{Label: "c", Ordinal: ordinal.New(1, time.Sunday)},
			}, nil
		},
	}
	svc := newTestService(repo, nil)

	got, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	want := []string{"c", "a", "b", "z"}
	for i, w := range want {
		if got[i].Label != w {
			t.Errorf("got[%d].Label = %q, want %q", i, got[i].Label, w)
		}
	}
}

func TestService_Delete(t *testing.T) {
	repo := &mockReminderRepo{
		deleteFn: func(ctx context.Context, id string) (bool, error) {
			return id == "r-1", nil
		},
	}
	svc := newTestService(repo, nil)

	if err := svc.Delete(context.Background(), "r-1"); err != nil {
		t.Errorf("Delete existing failed: %v", err)
	}

	err := svc.Delete(context.Background(), "missing")
	assertAPIErrorCode(t, err, model.ErrCodeReminderNotFound)
}

func TestService_Matching(t *testing.T) {
	// 2024-01-09 は第2火曜日
	date := time.Date(2024, time.January, 9, 0, 0, 0, 0, time.UTC)
	target := ordinal.New(2, time.Tuesday)

	var gotOrdinal ordinal.WeekdayOrdinal
	var gotEnabledOnly bool
	repo := &mockReminderRepo{
		listByOrdinalFn: func(ctx context.Context, o ordinal.WeekdayOrdinal, enabledOnly bool) ([]*model.Reminder, error) {
			gotOrdinal = o
			gotEnabledOnly = enabledOnly
			return []*model.Reminder{
				{Label: "燃えるゴミ", Ordinal: target, Enabled: true},
				{Label: "無効", Ordinal: target, Enabled: false},
				{Label: "別の日", Ordinal: ordinal.New(2, time.Wednesday), Enabled: true},
			}, nil
		},
	}
	svc := newTestService(repo, nil)

	got, err := svc.Matching(context.Background(), date)
	if err != nil {
		t.Fatalf("Matching failed: %v", err)
	}

	if !gotOrdinal.Equal(target) {
		t.Errorf("repository queried with %v, want %v", gotOrdinal, target)
	}
	if !gotEnabledOnly {
		t.Error("repository should be queried with enabledOnly=true")
	}
	if len(got) != 1 || got[0].Label != "燃えるゴミ" {
		t.Errorf("Matching() labels = %v, want [燃えるゴミ]", labelsOf(got))
	}
}

// TestService_Matching_UsesDateLocation は暦週の判定に日付のロケーションを使うことを検証する。
func TestService_Matching_UsesDateLocation(t *testing.T) {
	jst := time.FixedZone("Asia/Tokyo", 9*60*60)
	// UTCでは2024-01-07（第1日曜日）だが、JSTでは2024-01-08（第2月曜日）
	date := time.Date(2024, time.January, 7, 16, 0, 0, 0, time.UTC).In(jst)

	var gotOrdinal ordinal.WeekdayOrdinal
	repo := &mockReminderRepo{
		listByOrdinalFn: func(ctx context.Context, o ordinal.WeekdayOrdinal, enabledOnly bool) ([]*model.Reminder, error) {
			gotOrdinal = o
			return nil, nil
		},
	}
	svc := newTestService(repo, nil)

	if _, err := svc.Matching(context.Background(), date); err != nil {
		t.Fatalf("Matching failed: %v", err)
	}
	if want := ordinal.New(2, time.Monday); !gotOrdinal.Equal(want) {
		t.Errorf("ordinal = %v, want %v", gotOrdinal, want)
	}
}

func TestService_MarkNotified(t *testing.T) {
	on := time.Date(2024, time.January, 9, 9, 0, 0, 0, time.UTC)
	var gotID string
	var gotOn time.Time
	repo := &mockReminderRepo{
		markNotifiedFn: func(ctx context.Context, id string, at time.Time) error {
			gotID, gotOn = id, at
			return nil
		},
	}
	svc := newTestService(repo, nil)

	if err := svc.MarkNotified(context.Background(), "r-1", on); err != nil {
		t.Fatalf("MarkNotified failed: %v", err)
	}
	if gotID != "r-1" || !gotOn.Equal(on) {
		t.Errorf("MarkNotified called with (%q, %v)", gotID, gotOn)
	}
}

func labelsOf(rs []*model.Reminder) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Label)
	}
	return out
}
