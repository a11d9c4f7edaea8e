package orchestrators

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	studentStore "dtcteamcrm/internal/adapters/storage/student"
	userStore "dtcteamcrm/internal/adapters/storage/user"
	"dtcteamcrm/internal/domain/student"
	"dtcteamcrm/internal/domain/user"
)

// setTestClock pins the orchestrator clock for the duration of a test.
func setTestClock(t *testing.T, now time.Time) {
	t.Helper()
	prev := timeNow
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = prev })
}

// mockStudentStore is an in-memory student store for orchestrator tests.
type mockStudentStore struct {
	byID    map[string]student.Student
	saveErr error
	saves   int
}

func newMockStudentStore(seed ...student.Student) *mockStudentStore {
	m := &mockStudentStore{byID: make(map[string]student.Student)}
	for _, s := range seed {
		m.byID[s.ID] = s
	}
	return m
}

func (m *mockStudentStore) GetByID(_ context.Context, id string) (student.Student, error) {
	s, ok := m.byID[id]
	if !ok {
		return student.Student{}, errors.New("student not found")
	}
	return s, nil
}

func (m *mockStudentStore) Save(_ context.Context, s student.Student) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.byID[s.ID] = s
	return nil
}

func (m *mockStudentStore) Delete(_ context.Context, id string) error {
	delete(m.byID, id)
	return nil
}

// List applies the Status, CoachID and EndBefore filter fields; that is
// all the orchestrators use.
func (m *mockStudentStore) List(_ context.Context, filter studentStore.ListFilter) ([]student.Student, error) {
	var out []student.Student
	for _, s := range m.byID {
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		if filter.CoachID != "" && s.CoachID != filter.CoachID {
			continue
		}
		if !filter.EndBefore.IsZero() {
			if s.EndDate.IsZero() || !s.EndDate.Before(filter.EndBefore) {
				continue
			}
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockStudentStore) Count(_ context.Context, filter studentStore.ListFilter) (int, error) {
	list, _ := m.List(context.Background(), filter)
	return len(list), nil
}

// mockUserStore is an in-memory user store for orchestrator tests.
type mockUserStore struct {
	byID    map[string]user.User
	byEmail map[string]user.User
}

func newMockUserStore(seed ...user.User) *mockUserStore {
	m := &mockUserStore{
		byID:    make(map[string]user.User),
		byEmail: make(map[string]user.User),
	}
	for _, u := range seed {
		m.byID[u.ID] = u
		m.byEmail[u.Email] = u
	}
	return m
}

func (m *mockUserStore) GetByID(_ context.Context, id string) (user.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return user.User{}, errors.New("user not found")
	}
	return u, nil
}

func (m *mockUserStore) GetByEmail(_ context.Context, email string) (user.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return user.User{}, errors.New("user not found")
	}
	return u, nil
}

func (m *mockUserStore) Save(_ context.Context, u user.User) error {
	m.byID[u.ID] = u
	m.byEmail[u.Email] = u
	return nil
}

func (m *mockUserStore) Delete(_ context.Context, id string) error {
	if u, ok := m.byID[id]; ok {
		delete(m.byEmail, u.Email)
		delete(m.byID, id)
	}
	return nil
}

func (m *mockUserStore) List(_ context.Context, filter userStore.ListFilter) ([]user.User, error) {
	var out []user.User
	for _, u := range m.byID {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
