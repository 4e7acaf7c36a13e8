package users

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type repoMock struct {
	mutex sync.Mutex
	Users map[string]*User
}

func NewRepoMock() *repoMock {
	return &repoMock{
		Users: make(map[string]*User),
	}
}

func (r *repoMock) UsersCount() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.Users)
}

func (r *repoMock) GetByEmail(_ context.Context, email string) (*User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	email = NormalizeEmail(email)
	for _, u := range r.Users {
		if u.Email == email {
			userCopy := *u
			return &userCopy, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *repoMock) GetByID(_ context.Context, id string) (*User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	u, ok := r.Users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	userCopy := *u
	return &userCopy, nil
}

func (r *repoMock) Create(_ context.Context, user *User) (*User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	user.Email = NormalizeEmail(user.Email)
	for _, u := range r.Users {
		if u.Email == user.Email {
			return nil, ErrDuplicateEmail
		}
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = RoleUser
	}

	r.Users[user.ID] = user
	userCopy := *user
	return &userCopy, nil
}

func (r *repoMock) Update(_ context.Context, id string, params UpdateUserParams) (*User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	u, ok := r.Users[id]
	if !ok {
		return nil, ErrUserNotFound
	}

	if params.Name != nil {
		u.Name = *params.Name
	}
	if params.Role != nil {
		u.Role = *params.Role
	}
	u.UpdatedAt = time.Now()

	userCopy := *u
	return &userCopy, nil
}

func (r *repoMock) List(_ context.Context) ([]User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	all := make([]User, 0, len(r.Users))
	for _, u := range r.Users {
		all = append(all, *u)
	}
	return all, nil
}
