package users

import "context"

var _ Store = (*Repo)(nil)
var _ Store = (*repoMock)(nil)

// Store persists account records. The backing storage enforces the
// unique constraint on email; Create returns ErrDuplicateEmail when
// it is violated.
type Store interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, user *User) (*User, error)
	Update(ctx context.Context, id string, params UpdateUserParams) (*User, error)
	List(ctx context.Context) ([]User, error)
}

// UpdateUserParams are the updatable account fields; nil means
// "leave unchanged".
type UpdateUserParams struct {
	Name *string
	Role *string
}
