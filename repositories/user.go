//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"mentorlink/domain"
	"mentorlink/errors"
)

// IUserRepository is the user directory consumed by the connection state
// machine to validate role guards, and by the registration flow.
type IUserRepository interface {
	CreateUser(fullName, email, hashedPassword string, role domain.Role) (string, error)
	GetUser(id string) (User, error)
	GetUserByEmail(email string) (User, error)
	ListByRole(role domain.Role) ([]User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

// User is the repository-level representation of an account.
type User struct {
	ID           string    `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// ToDomain strips credentials and returns the domain view of the account.
func (u User) ToDomain() domain.User {
	return domain.User{
		ID:       u.ID,
		FullName: u.FullName,
		Email:    u.Email,
		Role:     domain.Role(u.Role),
	}
}

// CreateUser persists a new account and returns the generated ID.
// Email uniqueness is enforced by the "useremail:" index key checked and
// written inside a single transaction.
func (u UserRepository) CreateUser(fullName, email, hashedPassword string, role domain.Role) (string, error) {
	newID := uuid.NewString()
	record := User{
		ID:           newID,
		FullName:     fullName,
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         string(role),
		CreatedAt:    time.Now().UTC(),
	}

	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		emailKey := []byte("useremail:" + email)
		if _, err = txn.Get(emailKey); err == nil {
			return errors.ErrUserAlreadyExists
		}
		if err = txn.Set(emailKey, []byte(newID)); err != nil {
			return err
		}
		return txn.Set([]byte("user:"+newID), data)
	})
	if err != nil {
		return "", wrapStorage(err)
	}
	return newID, nil
}

// GetUser retrieves an account by ID.
func (u UserRepository) GetUser(id string) (User, error) {
	return u.getByKey("user:" + id)
}

// GetUserByEmail resolves the email index, then loads the account.
func (u UserRepository) GetUserByEmail(email string) (User, error) {
	var id string
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("useremail:" + email))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})
	if err != nil {
		return User{}, wrapStorage(err)
	}
	return u.GetUser(id)
}

// ListByRole scans all accounts and keeps those holding the given role.
// The user base is small enough that a full "user:" prefix scan is fine.
func (u UserRepository) ListByRole(role domain.Role) ([]User, error) {
	var users []User
	err := u.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("user:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var record User
				if err := json.Unmarshal(val, &record); err != nil {
					return err
				}
				if record.Role == string(role) {
					users = append(users, record)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrapStorage(err)
	}
	return users, nil
}

func (u UserRepository) getByKey(key string) (User, error) {
	var record User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err != nil {
		return User{}, wrapStorage(err)
	}
	return record, nil
}
