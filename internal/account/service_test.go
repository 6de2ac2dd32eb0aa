package account_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/projectlearn/vocaquiz/internal/account"
	"github.com/projectlearn/vocaquiz/internal/domain"
	"github.com/projectlearn/vocaquiz/internal/errors"
	"github.com/projectlearn/vocaquiz/internal/event"
	"github.com/projectlearn/vocaquiz/internal/storage"
)

func TestService_Login(t *testing.T) {
	type (
		inputs struct {
			email    string
			password string
		}

		outputs struct {
			user *domain.UserProfile
			err  error
		}
	)

	tests := map[string]struct {
		arrange func() inputs
		assert  func(t *testing.T, s *account.Service, out outputs)
	}{
		"any non-empty pair should log in with a profile named after the email": {
			arrange: func() inputs {
				return inputs{email: "ali@example.com", password: "secret"}
			},

			assert: func(t *testing.T, s *account.Service, out outputs) {
				require.NoError(t, out.err)
				require.Equal(t, "ali", out.user.Name)
				require.Equal(t, "ali@example.com", out.user.Email)
				require.NotEmpty(t, out.user.ID)
				require.True(t, s.Authenticated())
			},
		},

		"an empty email should be rejected": {
			arrange: func() inputs {
				return inputs{email: "", password: "secret"}
			},

			assert: func(t *testing.T, s *account.Service, out outputs) {
				require.Equal(t, errors.CodeInvalidArgument, errors.Convert(out.err).Code)
				require.False(t, s.Authenticated())
			},
		},

		"an empty password should be rejected": {
			arrange: func() inputs {
				return inputs{email: "ali@example.com", password: ""}
			},

			assert: func(t *testing.T, s *account.Service, out outputs) {
				require.Equal(t, errors.CodeInvalidArgument, errors.Convert(out.err).Code)
				require.False(t, s.Authenticated())
			},
		},

		"a whitespace-only email should be rejected": {
			arrange: func() inputs {
				return inputs{email: "   ", password: "secret"}
			},

			assert: func(t *testing.T, s *account.Service, out outputs) {
				require.Equal(t, errors.CodeInvalidArgument, errors.Convert(out.err).Code)
			},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			in, out := tt.arrange(), outputs{}

			s := makeService(t)
			out.user, out.err = s.Login(context.Background(), account.LoginRequest{
				Email:    in.email,
				Password: in.password,
			})

			tt.assert(t, s, out)
		})
	}
}

func TestService_LoginPersistsBeforeCommit(t *testing.T) {
	rs := miniredis.RunT(t)
	s := makeService(t, withRedis(rs))

	u, err := s.Login(context.Background(), account.LoginRequest{Email: "ali@example.com", Password: "secret"})
	require.NoError(t, err)

	token, err := rs.Get("userToken")
	require.NoError(t, err)
	require.Equal(t, "1", token)

	data, err := rs.Get("userData")
	require.NoError(t, err)

	var persisted domain.UserProfile
	require.NoError(t, json.Unmarshal([]byte(data), &persisted))
	require.Equal(t, *u, persisted)
}

func TestService_LoginFailsWhenStorageIsDown(t *testing.T) {
	rs := miniredis.RunT(t)
	s := makeService(t, withRedis(rs))

	rs.SetError("storage down")

	_, err := s.Login(context.Background(), account.LoginRequest{Email: "ali@example.com", Password: "secret"})
	require.Error(t, err)
	require.False(t, s.Authenticated(), "memory should not be committed when the write fails")
}

func TestService_Logout(t *testing.T) {
	rs := miniredis.RunT(t)
	s := makeService(t, withRedis(rs))

	_, err := s.Login(context.Background(), account.LoginRequest{Email: "ali@example.com", Password: "secret"})
	require.NoError(t, err)
	require.NoError(t, s.SaveWord(context.Background(), domain.SavedWord{ID: "w1", Word: "ubiquitous"}))

	s.Logout(context.Background())

	require.False(t, s.Authenticated())
	require.Nil(t, s.User())
	require.False(t, rs.Exists("userToken"))
	require.False(t, rs.Exists("userData"))

	// Saved words survive a logout.
	require.Len(t, s.SavedWords(), 1)
	require.True(t, rs.Exists("savedWords"))
}

func TestService_SaveRemoveWord(t *testing.T) {
	s := makeService(t)

	w1 := domain.SavedWord{ID: "w1", Word: "ubiquitous", Meaning: "her yerde bulunan"}
	w2 := domain.SavedWord{ID: "w2", Word: "resilient", Meaning: "dirençli"}

	require.NoError(t, s.SaveWord(context.Background(), w1))
	require.NoError(t, s.SaveWord(context.Background(), w2))
	require.Equal(t, []domain.SavedWord{w1, w2}, s.SavedWords())

	require.NoError(t, s.RemoveWord(context.Background(), "w1"))
	require.Equal(t, []domain.SavedWord{w2}, s.SavedWords())

	// Removing an unknown ID is a no-op.
	require.NoError(t, s.RemoveWord(context.Background(), "nope"))
	require.Equal(t, []domain.SavedWord{w2}, s.SavedWords())
}

func TestService_SaveWordAllowsDuplicates(t *testing.T) {
	s := makeService(t)

	w := domain.SavedWord{ID: "w1", Word: "ubiquitous"}
	require.NoError(t, s.SaveWord(context.Background(), w))
	require.NoError(t, s.SaveWord(context.Background(), w))

	require.Len(t, s.SavedWords(), 2)

	// Removal drops every entry with the ID.
	require.NoError(t, s.RemoveWord(context.Background(), "w1"))
	require.Empty(t, s.SavedWords())
}

func TestService_SaveWordValidates(t *testing.T) {
	s := makeService(t)

	err := s.SaveWord(context.Background(), domain.SavedWord{Word: "ubiquitous"})
	require.Equal(t, errors.CodeInvalidArgument, errors.Convert(err).Code)

	err = s.SaveWord(context.Background(), domain.SavedWord{ID: "w1"})
	require.Equal(t, errors.CodeInvalidArgument, errors.Convert(err).Code)
}

func TestService_SaveWordFailsWhenStorageIsDown(t *testing.T) {
	rs := miniredis.RunT(t)
	s := makeService(t, withRedis(rs))

	rs.SetError("storage down")

	err := s.SaveWord(context.Background(), domain.SavedWord{ID: "w1", Word: "ubiquitous"})
	require.Error(t, err)
	require.Empty(t, s.SavedWords(), "memory should not be committed when the write fails")
}

func TestService_LoadHydratesAcrossInstances(t *testing.T) {
	rs := miniredis.RunT(t)

	first := makeService(t, withRedis(rs))
	u, err := first.Login(context.Background(), account.LoginRequest{Email: "ali@example.com", Password: "secret"})
	require.NoError(t, err)
	require.NoError(t, first.SaveWord(context.Background(), domain.SavedWord{ID: "w1", Word: "ubiquitous"}))

	second := makeService(t, withRedis(rs))
	require.NoError(t, second.Load(context.Background()))

	require.True(t, second.Authenticated())
	require.Equal(t, u, second.User())
	require.Equal(t, first.SavedWords(), second.SavedWords())
}

func TestService_LoadToleratesCorruptData(t *testing.T) {
	rs := miniredis.RunT(t)
	require.NoError(t, rs.Set("userToken", "1"))
	require.NoError(t, rs.Set("userData", "{not json"))
	require.NoError(t, rs.Set("savedWords", "[not json"))

	s := makeService(t, withRedis(rs))
	require.NoError(t, s.Load(context.Background()))

	require.True(t, s.Authenticated())
	require.Nil(t, s.User())
	require.Empty(t, s.SavedWords())
}

func TestService_PublishesAuthChanged(t *testing.T) {
	eb := event.NewBus()

	var (
		mu     sync.Mutex
		events []domain.EventAuthChanged
	)
	eb.Subscribe(domain.EventNameAuthChanged, func(ctx context.Context, e event.Event) error {
		mu.Lock()
		events = append(events, e.(domain.EventAuthChanged))
		mu.Unlock()
		return nil
	})

	s := makeService(t, withEventBus(eb))

	u, err := s.Login(context.Background(), account.LoginRequest{Email: "ali@example.com", Password: "secret"})
	require.NoError(t, err)
	s.Logout(context.Background())

	eb.Stop()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 2)
	require.Equal(t, domain.EventAuthChanged{Authenticated: true, User: u}, events[0])
	require.Equal(t, domain.EventAuthChanged{Authenticated: false}, events[1])
}

func makeService(t *testing.T, opts ...options) *account.Service {
	t.Helper()

	c := config{
		EventBus: event.NewBus(),
	}

	for _, opt := range opts {
		opt(&c)
	}

	if c.Redis == nil {
		c.Redis = miniredis.RunT(t)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	rc := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{c.Redis.Addr()},
	})
	require.NoError(t, rc.Ping(ctx).Err(), "should be able to ping redis")

	return account.NewService(account.Config{
		EventBus: c.EventBus,
		Storage:  storage.NewRedis(storage.Config{Redis: rc}),
	})
}

type config struct {
	EventBus *event.Bus
	Redis    *miniredis.Miniredis
}

type options func(c *config)

func withEventBus(eb *event.Bus) options {
	return func(c *config) {
		c.EventBus = eb
	}
}

func withRedis(rs *miniredis.Miniredis) options {
	return func(c *config) {
		c.Redis = rs
	}
}
