package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/sakif/vocalcollab/internal/apperror"
	"github.com/sakif/vocalcollab/internal/model"
	"github.com/sakif/vocalcollab/internal/repository"
)

// =========================================================================
// FAKES
// =========================================================================
//
// Hand-written in-memory implementations of the repository interfaces.
// Each one mimics what the sqlite layer guarantees (NotFound errors,
// ErrDuplicate on unique violations, newest-first ordering) and nothing
// more, so a service test fails if a rule is left to the database.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[int64]*model.User
	nextID int64
	// set to simulate a database failure
	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*model.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, u := range f.users {
		if u.Username == user.Username {
			return repository.ErrDuplicate
		}
	}
	f.nextID++
	user.ID = f.nextID
	user.DateJoined = time.Now().UTC()
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", strconv.FormatInt(id, 10))
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (f *fakeUserRepo) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return apperror.NotFound("user", strconv.FormatInt(id, 10))
	}
	delete(f.users, id)
	return nil
}

// add inserts a user directly, bypassing hashing.
func (f *fakeUserRepo) add(username string) *model.User {
	u := &model.User{Username: username, PasswordHash: "unused"}
	if err := f.Create(context.Background(), u); err != nil {
		panic(err)
	}
	return u
}

type fakeTrackRepo struct {
	tracks    []model.Track
	createErr error
}

func (f *fakeTrackRepo) Create(_ context.Context, track *model.Track) error {
	if f.createErr != nil {
		return f.createErr
	}
	track.ID = int64(len(f.tracks) + 1)
	track.CreatedTime = time.Now().UTC()
	f.tracks = append(f.tracks, *track)
	return nil
}

func (f *fakeTrackRepo) GetByID(_ context.Context, id int64) (*model.Track, error) {
	for _, t := range f.tracks {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, apperror.NotFound("track", strconv.FormatInt(id, 10))
}

func (f *fakeTrackRepo) List(_ context.Context, opts repository.ListOptions) ([]model.Track, error) {
	return page(newestFirst(f.tracks), opts), nil
}

func (f *fakeTrackRepo) ListByUsername(_ context.Context, username string, opts repository.ListOptions) ([]model.Track, error) {
	var owned []model.Track
	for _, t := range f.tracks {
		if t.Username != nil && *t.Username == username {
			owned = append(owned, t)
		}
	}
	return page(newestFirst(owned), opts), nil
}

func newestFirst(tracks []model.Track) []model.Track {
	out := append([]model.Track(nil), tracks...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func page(tracks []model.Track, opts repository.ListOptions) []model.Track {
	if opts.Offset >= len(tracks) {
		return []model.Track{}
	}
	tracks = tracks[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(tracks) {
		tracks = tracks[:opts.Limit]
	}
	return tracks
}

type fakeCommentRepo struct {
	comments map[int64]model.Comment
	nextID   int64
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{comments: make(map[int64]model.Comment)}
}

func (f *fakeCommentRepo) Create(_ context.Context, c *model.Comment) error {
	f.nextID++
	c.ID = f.nextID
	c.CreatedAt = time.Now().UTC()
	f.comments[c.ID] = *c
	return nil
}

func (f *fakeCommentRepo) GetByID(_ context.Context, id int64) (*model.Comment, error) {
	c, ok := f.comments[id]
	if !ok {
		return nil, apperror.NotFound("comment", strconv.FormatInt(id, 10))
	}
	return &c, nil
}

func (f *fakeCommentRepo) ListByTrack(_ context.Context, trackID int64) ([]model.Comment, error) {
	out := make([]model.Comment, 0)
	for _, c := range f.comments {
		if c.TrackID == trackID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeCommentRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.comments[id]; !ok {
		return apperror.NotFound("comment", strconv.FormatInt(id, 10))
	}
	delete(f.comments, id)
	return nil
}

type likeKey struct{ track, user int64 }

type fakeLikeRepo struct {
	mu    sync.Mutex
	likes map[likeKey]bool
}

func newFakeLikeRepo() *fakeLikeRepo {
	return &fakeLikeRepo{likes: make(map[likeKey]bool)}
}

func (f *fakeLikeRepo) Create(_ context.Context, like *model.Like) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := likeKey{like.TrackID, like.UserID}
	if f.likes[k] {
		return repository.ErrDuplicate
	}
	f.likes[k] = true
	like.ID = int64(len(f.likes))
	return nil
}

func (f *fakeLikeRepo) Count(_ context.Context, trackID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for k := range f.likes {
		if k.track == trackID {
			n++
		}
	}
	return n, nil
}

type edge struct{ from, to int64 }

type fakeFollowRepo struct {
	users *fakeUserRepo
	edges []edge // in creation order
}

func (f *fakeFollowRepo) Toggle(ctx context.Context, followerID, followingID int64) (bool, *model.Follow, error) {
	for i, e := range f.edges {
		if e.from == followerID && e.to == followingID {
			f.edges = append(f.edges[:i], f.edges[i+1:]...)
			return false, nil, nil
		}
	}
	f.edges = append(f.edges, edge{followerID, followingID})
	from, _ := f.users.GetByID(ctx, followerID)
	to, _ := f.users.GetByID(ctx, followingID)
	return true, &model.Follow{
		ID:        int64(len(f.edges)),
		Follower:  brief(from),
		Following: brief(to),
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (f *fakeFollowRepo) Exists(_ context.Context, followerID, followingID int64) (bool, error) {
	for _, e := range f.edges {
		if e.from == followerID && e.to == followingID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeFollowRepo) ListFollowers(ctx context.Context, userID int64) ([]model.UserBrief, error) {
	out := make([]model.UserBrief, 0)
	for _, e := range f.edges {
		if e.to == userID {
			u, _ := f.users.GetByID(ctx, e.from)
			out = append(out, brief(u))
		}
	}
	return out, nil
}

func (f *fakeFollowRepo) ListFollowing(ctx context.Context, userID int64) ([]model.UserBrief, error) {
	out := make([]model.UserBrief, 0)
	for _, e := range f.edges {
		if e.from == userID {
			u, _ := f.users.GetByID(ctx, e.to)
			out = append(out, brief(u))
		}
	}
	return out, nil
}

// fakeStore is an in-memory media.Store.
type fakeStore struct {
	objects map[string][]byte
	saveErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (f *fakeStore) Save(_ context.Context, key, _ string, r io.Reader, _ int64) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return err
	}
	f.objects[key] = buf.Bytes()
	return nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func (f *fakeStore) URL(key string) string { return "https://media.test/" + key }

var errDatabaseDown = errors.New("database is down")

// brief reduces a user to the {id, username} pair follow lists return.
func brief(u *model.User) model.UserBrief {
	return model.UserBrief{ID: u.ID, Username: u.Username}
}
