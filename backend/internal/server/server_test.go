package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"flock/backend/internal/auth"
	"flock/backend/internal/graph"
)

// fakeStore implements Store with overridable function fields; a call
// without an override fails the test through the nil panic
type fakeStore struct {
	createUser                   func(ctx context.Context, profile graph.UserProfile) error
	getUserByID                  func(ctx context.Context, userID string) (*graph.UserProfile, error)
	getUserByUsername            func(ctx context.Context, username string) (*graph.UserProfile, error)
	isUsernameAvailable          func(ctx context.Context, username string) (bool, error)
	isUsernameAvailableExcluding func(ctx context.Context, username, excludedID string) (bool, error)
	updateUser                   func(ctx context.Context, userID, name, username, bio, avatar string) (*graph.UserProfile, error)
	followCounts                 func(ctx context.Context, userID string) (graph.FollowCounts, error)
	allUsersExcept               func(ctx context.Context, userID string) ([]graph.UserProfile, error)
	follow                       func(ctx context.Context, sourceID, targetID string) error
	unfollow                     func(ctx context.Context, sourceID, targetID string) error
	followers                    func(ctx context.Context, userID string) ([]graph.UserProfile, error)
	following                    func(ctx context.Context, userID string) ([]graph.UserProfile, error)
	mutualConnections            func(ctx context.Context, userA, userB string) ([]graph.UserProfile, error)
	suggestions                  func(ctx context.Context, userID string, limit int) ([]graph.UserProfile, error)
	searchUsers                  func(ctx context.Context, term, excludingUserID string) ([]graph.UserProfile, error)
	popularUsers                 func(ctx context.Context, limit int) ([]graph.UserProfile, error)
	feedPosts                    func(ctx context.Context, userID string) ([]graph.FeedPost, error)
	createPost                   func(ctx context.Context, authorID, content string) (*graph.FeedPost, error)
}

func (f *fakeStore) CreateUser(ctx context.Context, profile graph.UserProfile) error {
	return f.createUser(ctx, profile)
}
func (f *fakeStore) GetUserByID(ctx context.Context, userID string) (*graph.UserProfile, error) {
	return f.getUserByID(ctx, userID)
}
func (f *fakeStore) GetUserByUsername(ctx context.Context, username string) (*graph.UserProfile, error) {
	return f.getUserByUsername(ctx, username)
}
func (f *fakeStore) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	return f.isUsernameAvailable(ctx, username)
}
func (f *fakeStore) IsUsernameAvailableExcluding(ctx context.Context, username, excludedID string) (bool, error) {
	return f.isUsernameAvailableExcluding(ctx, username, excludedID)
}
func (f *fakeStore) UpdateUser(ctx context.Context, userID, name, username, bio, avatar string) (*graph.UserProfile, error) {
	return f.updateUser(ctx, userID, name, username, bio, avatar)
}
func (f *fakeStore) FollowCounts(ctx context.Context, userID string) (graph.FollowCounts, error) {
	return f.followCounts(ctx, userID)
}
func (f *fakeStore) AllUsersExcept(ctx context.Context, userID string) ([]graph.UserProfile, error) {
	return f.allUsersExcept(ctx, userID)
}
func (f *fakeStore) Follow(ctx context.Context, sourceID, targetID string) error {
	return f.follow(ctx, sourceID, targetID)
}
func (f *fakeStore) Unfollow(ctx context.Context, sourceID, targetID string) error {
	return f.unfollow(ctx, sourceID, targetID)
}
func (f *fakeStore) Followers(ctx context.Context, userID string) ([]graph.UserProfile, error) {
	return f.followers(ctx, userID)
}
func (f *fakeStore) Following(ctx context.Context, userID string) ([]graph.UserProfile, error) {
	return f.following(ctx, userID)
}
func (f *fakeStore) MutualConnections(ctx context.Context, userA, userB string) ([]graph.UserProfile, error) {
	return f.mutualConnections(ctx, userA, userB)
}
func (f *fakeStore) Suggestions(ctx context.Context, userID string, limit int) ([]graph.UserProfile, error) {
	return f.suggestions(ctx, userID, limit)
}
func (f *fakeStore) SearchUsers(ctx context.Context, term, excludingUserID string) ([]graph.UserProfile, error) {
	return f.searchUsers(ctx, term, excludingUserID)
}
func (f *fakeStore) PopularUsers(ctx context.Context, limit int) ([]graph.UserProfile, error) {
	return f.popularUsers(ctx, limit)
}
func (f *fakeStore) FeedPosts(ctx context.Context, userID string) ([]graph.FeedPost, error) {
	return f.feedPosts(ctx, userID)
}
func (f *fakeStore) CreatePost(ctx context.Context, authorID, content string) (*graph.FeedPost, error) {
	return f.createPost(ctx, authorID, content)
}

// asUser is a stub auth middleware injecting a fixed caller identity
func asUser(id, email string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth.SetContextUser(c, auth.User{ID: id, Email: email})
		c.Next()
	}
}

func newTestRouter(store Store, callerID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(NewHandlers(store, nil), asUser(callerID, callerID+"@example.com"), zap.NewNop(), []string{"*"})
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(payload)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(&fakeStore{}, "u1")

	w := doJSON(t, router, "GET", "/api/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])
}

func TestOnboarding_Success(t *testing.T) {
	var created *graph.UserProfile
	store := &fakeStore{
		isUsernameAvailable: func(ctx context.Context, username string) (bool, error) {
			return true, nil
		},
		createUser: func(ctx context.Context, profile graph.UserProfile) error {
			created = &profile
			return nil
		},
	}
	router := newTestRouter(store, "user_123")

	w := doJSON(t, router, "POST", "/api/onboarding", ProfileRequest{
		Name:     "  Alice  ",
		Username: "alice_w",
		Bio:      "hello",
		Avatar:   "avatar_3",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, created)
	assert.Equal(t, "user_123", created.ID)
	assert.Equal(t, "Alice", created.Name, "name is trimmed before storage")
	assert.Equal(t, "user_123@example.com", created.Email, "email comes from the verified identity")
}

func TestOnboarding_UsernameTaken(t *testing.T) {
	store := &fakeStore{
		isUsernameAvailable: func(ctx context.Context, username string) (bool, error) {
			return false, nil
		},
	}
	router := newTestRouter(store, "user_123")

	w := doJSON(t, router, "POST", "/api/onboarding", ProfileRequest{
		Name: "Alice", Username: "alice_w", Avatar: "avatar_3",
	})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestOnboarding_InvalidBody(t *testing.T) {
	router := newTestRouter(&fakeStore{}, "user_123")

	// Avatar outside the fixed set never reaches the store
	w := doJSON(t, router, "POST", "/api/onboarding", ProfileRequest{
		Name: "Alice", Username: "alice_w", Avatar: "avatar_11",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetProfile_AttachesFollowCounts(t *testing.T) {
	store := &fakeStore{
		getUserByID: func(ctx context.Context, userID string) (*graph.UserProfile, error) {
			return &graph.UserProfile{ID: userID, Name: "Bob", Username: "bob"}, nil
		},
		followCounts: func(ctx context.Context, userID string) (graph.FollowCounts, error) {
			return graph.FollowCounts{Followers: 5, Following: 2}, nil
		},
	}
	router := newTestRouter(store, "u1")

	w := doJSON(t, router, "GET", "/api/profile/user_9", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var profile graph.UserProfile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, int64(5), profile.FollowersCount)
	assert.Equal(t, int64(2), profile.FollowingCount)
}

func TestGetProfile_CountsDegradeToZero(t *testing.T) {
	store := &fakeStore{
		getUserByID: func(ctx context.Context, userID string) (*graph.UserProfile, error) {
			return &graph.UserProfile{ID: userID, Name: "Bob", Username: "bob"}, nil
		},
		followCounts: func(ctx context.Context, userID string) (graph.FollowCounts, error) {
			return graph.FollowCounts{}, context.DeadlineExceeded
		},
	}
	router := newTestRouter(store, "u1")

	w := doJSON(t, router, "GET", "/api/profile/user_9", nil)

	assert.Equal(t, http.StatusOK, w.Code, "count failure must not fail the profile read")
	var profile graph.UserProfile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Zero(t, profile.FollowersCount)
}

func TestGetProfile_NotFound(t *testing.T) {
	store := &fakeStore{
		getUserByID: func(ctx context.Context, userID string) (*graph.UserProfile, error) {
			return nil, nil
		},
	}
	router := newTestRouter(store, "u1")

	w := doJSON(t, router, "GET", "/api/profile/user_9", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetProfileByUsername(t *testing.T) {
	store := &fakeStore{
		getUserByUsername: func(ctx context.Context, username string) (*graph.UserProfile, error) {
			if username == "bob" {
				return &graph.UserProfile{ID: "u9", Username: "bob"}, nil
			}
			return nil, nil
		},
		followCounts: func(ctx context.Context, userID string) (graph.FollowCounts, error) {
			return graph.FollowCounts{}, nil
		},
	}
	router := newTestRouter(store, "u1")

	assert.Equal(t, http.StatusOK, doJSON(t, router, "GET", "/api/profile?username=bob", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, router, "GET", "/api/profile?username=ghost", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, router, "GET", "/api/profile", nil).Code)
}

func TestUpdateProfile_ForbiddenForOtherUsers(t *testing.T) {
	router := newTestRouter(&fakeStore{}, "user_123")

	w := doJSON(t, router, "PATCH", "/api/profile/someone_else", ProfileRequest{
		Name: "X", Username: "xxx", Avatar: "avatar_1",
	})

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateProfile_SkipsAvailabilityWhenUsernameUnchanged(t *testing.T) {
	store := &fakeStore{
		getUserByID: func(ctx context.Context, userID string) (*graph.UserProfile, error) {
			return &graph.UserProfile{ID: userID, Username: "Alice_W"}, nil
		},
		// isUsernameAvailableExcluding deliberately nil: calling it panics
		updateUser: func(ctx context.Context, userID, name, username, bio, avatar string) (*graph.UserProfile, error) {
			return &graph.UserProfile{ID: userID, Name: name, Username: username, Bio: bio, Avatar: avatar}, nil
		},
	}
	router := newTestRouter(store, "user_123")

	// Same username, different case: no availability check
	w := doJSON(t, router, "PATCH", "/api/profile/user_123", ProfileRequest{
		Name: "Alice", Username: "alice_w", Avatar: "avatar_2",
	})

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateProfile_ConflictOnTakenUsername(t *testing.T) {
	store := &fakeStore{
		getUserByID: func(ctx context.Context, userID string) (*graph.UserProfile, error) {
			return &graph.UserProfile{ID: userID, Username: "old_name"}, nil
		},
		isUsernameAvailableExcluding: func(ctx context.Context, username, excludedID string) (bool, error) {
			return false, nil
		},
	}
	router := newTestRouter(store, "user_123")

	w := doJSON(t, router, "PATCH", "/api/profile/user_123", ProfileRequest{
		Name: "Alice", Username: "new_name", Avatar: "avatar_2",
	})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestFollow_StatusMapping(t *testing.T) {
	store := &fakeStore{
		follow: func(ctx context.Context, sourceID, targetID string) error {
			switch targetID {
			case "ghost":
				return graph.ErrUserNotFound{UserID: targetID}
			case "user_123":
				return graph.ErrSelfFollow
			}
			return nil
		},
	}
	router := newTestRouter(store, "user_123")

	assert.Equal(t, http.StatusOK, doJSON(t, router, "POST", "/api/social/follow/user_456", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, router, "POST", "/api/social/follow/ghost", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, router, "POST", "/api/social/follow/user_123", nil).Code)
}

func TestUnfollow(t *testing.T) {
	var gotSource, gotTarget string
	store := &fakeStore{
		unfollow: func(ctx context.Context, sourceID, targetID string) error {
			gotSource, gotTarget = sourceID, targetID
			return nil
		},
	}
	router := newTestRouter(store, "user_123")

	w := doJSON(t, router, "DELETE", "/api/social/unfollow/user_456", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user_123", gotSource)
	assert.Equal(t, "user_456", gotTarget)
}

func TestFollowing_DefaultsToCaller(t *testing.T) {
	store := &fakeStore{
		following: func(ctx context.Context, userID string) ([]graph.UserProfile, error) {
			return []graph.UserProfile{{ID: "followee-of-" + userID}}, nil
		},
	}
	router := newTestRouter(store, "user_123")

	w := doJSON(t, router, "GET", "/api/social/following", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var users []graph.UserProfile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	require.Len(t, users, 1)
	assert.Equal(t, "followee-of-user_123", users[0].ID)

	w = doJSON(t, router, "GET", "/api/social/following/user_789", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	assert.Equal(t, "followee-of-user_789", users[0].ID)
}

func TestSearch_EmptyTermSkipsStore(t *testing.T) {
	// searchUsers deliberately nil: hitting the store would panic
	router := newTestRouter(&fakeStore{}, "user_123")

	for _, q := range []string{"", "%20%20", "%09"} {
		w := doJSON(t, router, "GET", "/api/social/users/search?q="+q, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, "[]", w.Body.String())
	}
}

func TestSearch_TrimsTerm(t *testing.T) {
	var gotTerm, gotExcluded string
	store := &fakeStore{
		searchUsers: func(ctx context.Context, term, excludingUserID string) ([]graph.UserProfile, error) {
			gotTerm, gotExcluded = term, excludingUserID
			return []graph.UserProfile{}, nil
		},
	}
	router := newTestRouter(store, "user_123")

	w := doJSON(t, router, "GET", "/api/social/users/search?q=%20ali%20", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ali", gotTerm)
	assert.Equal(t, "user_123", gotExcluded)
}

func TestSuggestions_LimitParam(t *testing.T) {
	var gotLimit int
	store := &fakeStore{
		suggestions: func(ctx context.Context, userID string, limit int) ([]graph.UserProfile, error) {
			gotLimit = limit
			return []graph.UserProfile{}, nil
		},
	}
	router := newTestRouter(store, "user_123")

	doJSON(t, router, "GET", "/api/social/suggestions", nil)
	assert.Equal(t, 0, gotLimit, "missing limit defers to the repository default")

	doJSON(t, router, "GET", "/api/social/suggestions?limit=5", nil)
	assert.Equal(t, 5, gotLimit)

	doJSON(t, router, "GET", "/api/social/suggestions?limit=banana", nil)
	assert.Equal(t, 0, gotLimit)
}

func TestFeed(t *testing.T) {
	store := &fakeStore{
		feedPosts: func(ctx context.Context, userID string) ([]graph.FeedPost, error) {
			return []graph.FeedPost{
				{ID: "p2", Content: "newer", CreatedAt: "2024-06-01T13:00:00Z"},
				{ID: "p1", Content: "older", CreatedAt: "2024-06-01T12:00:00Z"},
			}, nil
		},
	}
	router := newTestRouter(store, "user_123")

	w := doJSON(t, router, "GET", "/api/feed", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var response struct {
		Posts []graph.FeedPost `json:"posts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Posts, 2)
	assert.Equal(t, "newer", response.Posts[0].Content)
}

func TestCreatePost(t *testing.T) {
	store := &fakeStore{
		createPost: func(ctx context.Context, authorID, content string) (*graph.FeedPost, error) {
			return &graph.FeedPost{ID: "p1", Content: content, Author: graph.FeedPostAuthor{ID: authorID}}, nil
		},
	}
	router := newTestRouter(store, "user_123")

	w := doJSON(t, router, "POST", "/api/posts", PostRequest{Content: "hello"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, "POST", "/api/posts", PostRequest{Content: "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMutualConnections_UsesCallerAndParam(t *testing.T) {
	var gotA, gotB string
	store := &fakeStore{
		mutualConnections: func(ctx context.Context, userA, userB string) ([]graph.UserProfile, error) {
			gotA, gotB = userA, userB
			return []graph.UserProfile{}, nil
		},
	}
	router := newTestRouter(store, "user_123")

	w := doJSON(t, router, "GET", "/api/social/mutual/user_456", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user_123", gotA)
	assert.Equal(t, "user_456", gotB)
}
