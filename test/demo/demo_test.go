//go:build integration_test

package demo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/projectlearn/vocaquiz/internal/domain"
	"github.com/projectlearn/vocaquiz/internal/quiz"
)

const (
	baseURL = "http://localhost:8080/v1"
)

func TestQuiz(t *testing.T) {
	// Watch the navigation channel while logging in and playing a quiz.
	nav := subscribeRedis(t, makeRedis(t), "local:navigation")
	go func() {
		for msg := range nav {
			t.Logf("navigation: %s", msg.Payload)
		}
	}()

	// Log in
	{
		var resp struct {
			User domain.UserProfile `json:"user"`
		}
		post(t, "/auth/login", map[string]string{
			"email":    "demo@example.com",
			"password": "demo",
		}, &resp)
		t.Logf("Logged in as %s (%s)", resp.User.Name, resp.User.ID)
	}

	// Start an easy multiple-choice quiz and answer every question correctly.
	var session quiz.View
	{
		var resp struct {
			Session quiz.View `json:"session"`
		}
		post(t, "/quizzes", map[string]string{
			"mode":       "multiple-choice",
			"difficulty": "easy",
		}, &resp)
		session = resp.Session
		t.Logf("Started quiz %s with %d questions", session.ID, session.Total)
	}

	for _, q := range session.MultipleChoice {
		var resp quiz.SubmitAnswerResponse
		post(t, fmt.Sprintf("/quizzes/%s/answers", session.ID), map[string]string{
			"answer": q.CorrectAnswer,
		}, &resp)

		t.Logf("Answered %q: correct=%t, score=%d/%d",
			q.Prompt, resp.Correct, resp.Session.Score, resp.Session.Total)
	}

	// Finish and print the result.
	{
		var resp struct {
			Result quiz.Result `json:"result"`
		}
		post(t, fmt.Sprintf("/quizzes/%s/finish", session.ID), nil, &resp)
		t.Logf("Finished: %d%% (%s)", resp.Result.Percentage, resp.Result.Feedback)
	}
}

func post(t *testing.T, path string, body any, out any) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	b, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+path, bytes.NewReader(b))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Less(t, resp.StatusCode, 300, "POST %s", path)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func subscribeRedis(t *testing.T, rc redis.UniversalClient, channel string) <-chan *redis.Message {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

	sub := rc.Subscribe(ctx, channel)
	t.Cleanup(func() {
		sub.Close()
		cancel()
	})

	c := make(chan *redis.Message)
	go func() {
		defer close(c)

		for {
			msg, err := sub.ReceiveMessage(ctx)
			if err != nil {
				return
			}

			c <- msg
		}
	}()

	return c
}

func makeRedis(t *testing.T) redis.UniversalClient {
	r := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{"localhost:6379"},
	})
	t.Cleanup(func() { r.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.Ping(ctx).Err(); err != nil {
		t.Fatal(err)
	}

	return r
}
