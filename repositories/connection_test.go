package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"mentorlink/domain"
	"mentorlink/errors"
)

func newTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func pendingConnection(mentorID, menteeID string) Connection {
	now := time.Now().UTC()
	return Connection{
		ID:        uuid.New(),
		MentorID:  mentorID,
		MenteeID:  menteeID,
		State:     string(domain.ConnectionPending),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func Test_Insert_And_FindByPair_Both_Orderings(t *testing.T) {
	req := require.New(t)
	repository := NewConnectionRepository(newTestDB(t))

	record := pendingConnection("mentor-1", "mentee-1")
	req.NoError(repository.Insert(record))

	found, err := repository.FindByPair("mentor-1", "mentee-1")
	req.NoError(err)
	req.Equal(record.ID, found.ID)

	// The lookup must be directionless.
	found, err = repository.FindByPair("mentee-1", "mentor-1")
	req.NoError(err)
	req.Equal(record.ID, found.ID)
}

func Test_Insert_Duplicate_Pending_Fails(t *testing.T) {
	req := require.New(t)
	repository := NewConnectionRepository(newTestDB(t))

	req.NoError(repository.Insert(pendingConnection("mentor-1", "mentee-1")))

	err := repository.Insert(pendingConnection("mentor-1", "mentee-1"))
	req.ErrorIs(err, errors.ErrAlreadyRequested)
}

func Test_Insert_Duplicate_Accepted_Fails(t *testing.T) {
	req := require.New(t)
	repository := NewConnectionRepository(newTestDB(t))

	req.NoError(repository.Insert(pendingConnection("mentor-1", "mentee-1")))
	_, err := repository.UpdateState("mentor-1", "mentee-1", domain.ConnectionAccepted)
	req.NoError(err)

	err = repository.Insert(pendingConnection("mentor-1", "mentee-1"))
	req.ErrorIs(err, errors.ErrAlreadyConnected)
}

func Test_Insert_Concurrent_Requests_One_Winner(t *testing.T) {
	req := require.New(t)
	repository := NewConnectionRepository(newTestDB(t))

	// Two simultaneous requests for the same pair must resolve to exactly
	// one stored record, whether the loser sees the winner's record in its
	// transaction or loses the commit race.
	for i := 0; i < 20; i++ {
		mentorID := fmt.Sprintf("mentor-%d", i)
		menteeID := fmt.Sprintf("mentee-%d", i)

		results := make(chan error, 2)
		start := make(chan struct{})
		for j := 0; j < 2; j++ {
			go func() {
				<-start
				results <- repository.Insert(pendingConnection(mentorID, menteeID))
			}()
		}
		close(start)

		first, second := <-results, <-results
		if first != nil {
			first, second = second, first
		}
		req.NoError(first)
		req.ErrorIs(second, errors.ErrAlreadyRequested)

		found, err := repository.FindByPair(mentorID, menteeID)
		req.NoError(err)
		req.Equal(string(domain.ConnectionPending), found.State)
	}
}

func Test_UpdateState_Transitions_Record(t *testing.T) {
	req := require.New(t)
	repository := NewConnectionRepository(newTestDB(t))

	record := pendingConnection("mentor-1", "mentee-1")
	req.NoError(repository.Insert(record))

	updated, err := repository.UpdateState("mentor-1", "mentee-1", domain.ConnectionAccepted)
	req.NoError(err)
	req.Equal(string(domain.ConnectionAccepted), updated.State)
	req.Equal(record.ID, updated.ID)

	found, err := repository.FindByPair("mentor-1", "mentee-1")
	req.NoError(err)
	req.Equal(string(domain.ConnectionAccepted), found.State)
}

func Test_UpdateState_Missing_Record(t *testing.T) {
	req := require.New(t)
	repository := NewConnectionRepository(newTestDB(t))

	_, err := repository.UpdateState("mentor-1", "mentee-1", domain.ConnectionAccepted)
	req.ErrorIs(err, errors.ErrNotFound)
}

func Test_Delete_Allows_New_Request(t *testing.T) {
	req := require.New(t)
	repository := NewConnectionRepository(newTestDB(t))

	req.NoError(repository.Insert(pendingConnection("mentor-1", "mentee-1")))
	req.NoError(repository.Delete("mentor-1", "mentee-1"))

	_, err := repository.FindByPair("mentor-1", "mentee-1")
	req.ErrorIs(err, errors.ErrNotFound)

	// Rejection returns the pair to a blank state, a re-request must work.
	req.NoError(repository.Insert(pendingConnection("mentor-1", "mentee-1")))
}

func Test_Delete_Missing_Record(t *testing.T) {
	req := require.New(t)
	repository := NewConnectionRepository(newTestDB(t))

	err := repository.Delete("mentor-1", "mentee-1")
	req.ErrorIs(err, errors.ErrNotFound)
}

func Test_ListByUser_Covers_Both_Sides(t *testing.T) {
	req := require.New(t)
	repository := NewConnectionRepository(newTestDB(t))

	// user-1 is mentor in one record and mentee in another.
	req.NoError(repository.Insert(pendingConnection("user-1", "mentee-a")))
	req.NoError(repository.Insert(pendingConnection("mentor-b", "user-1")))
	req.NoError(repository.Insert(pendingConnection("mentor-c", "mentee-d")))

	records, err := repository.ListByUser("user-1")
	req.NoError(err)
	req.Len(records, 2)

	records, err = repository.ListByUser("stranger")
	req.NoError(err)
	req.Empty(records)
}
