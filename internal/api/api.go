package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/projectlearn/vocaquiz/internal/account"
	"github.com/projectlearn/vocaquiz/internal/domain"
	"github.com/projectlearn/vocaquiz/internal/errors"
	"github.com/projectlearn/vocaquiz/internal/event"
	"github.com/projectlearn/vocaquiz/internal/history"
	"github.com/projectlearn/vocaquiz/internal/quiz"
	"github.com/projectlearn/vocaquiz/internal/vocab"
)

type Config struct {
	Router       gin.IRouter
	EventBus     *event.Bus
	Account      *account.Service
	Quiz         *quiz.Service
	Vocab        *vocab.Store
	Practice     PracticeGenerator
	History      *history.Service
	Redis        Redis
	PubsubPrefix string
}

type PracticeGenerator interface {
	GeneratePractice(ctx context.Context, word string) (*domain.PracticeResult, error)
}

type Redis interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

type API struct {
	account  *account.Service
	quiz     *quiz.Service
	vocab    *vocab.Store
	practice PracticeGenerator
	history  *history.Service

	redis  Redis
	prefix string
}

func New(c Config) *API {
	a := &API{
		account:  c.Account,
		quiz:     c.Quiz,
		vocab:    c.Vocab,
		practice: c.Practice,
		history:  c.History,
		redis:    c.Redis,
		prefix:   c.PubsubPrefix,
	}

	a.routes(c.Router)

	// Auth changes are forwarded to UI clients as navigation notifications.
	c.EventBus.Subscribe(domain.EventNameAuthChanged, func(ctx context.Context, e event.Event) error {
		return a.PublishAuthChanged(ctx, e.(domain.EventAuthChanged))
	})

	return a
}

func (a *API) routes(r gin.IRouter) {
	v1 := r.Group("/v1")

	v1.POST("/auth/login", a.handleLogin)
	v1.POST("/auth/logout", a.handleLogout)

	v1.GET("/categories", a.handleListCategories)
	v1.GET("/categories/:id/words", a.handleListCategoryWords)

	v1.GET("/words/saved", a.handleListSavedWords)
	v1.POST("/words/saved", a.handleSaveWord)
	v1.DELETE("/words/saved/:id", a.handleRemoveWord)

	v1.POST("/quizzes", a.handleStartQuiz)
	v1.GET("/quizzes/:id", a.handleGetQuiz)
	v1.POST("/quizzes/:id/answers", a.handleSubmitAnswer)
	v1.POST("/quizzes/:id/matches", a.handleMatchPair)
	v1.POST("/quizzes/:id/restart", a.handleRestartQuiz)
	v1.POST("/quizzes/:id/finish", a.handleFinishQuiz)

	v1.POST("/practice", a.handlePractice)

	if a.history != nil {
		v1.GET("/history/results", a.handleListResults)
	}
}

func (a *API) handleLogin(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		a.abortWithError(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	u, err := a.account.Login(c.Request.Context(), account.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		a.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (a *API) handleLogout(c *gin.Context) {
	a.account.Logout(c.Request.Context())
	c.Status(http.StatusNoContent)
}

func (a *API) handleListCategories(c *gin.Context) {
	type category struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Words int    `json:"words"`
	}

	var out []category
	for _, cat := range a.vocab.Categories() {
		out = append(out, category{ID: cat.ID, Name: cat.Name, Words: len(cat.Words)})
	}

	c.JSON(http.StatusOK, gin.H{"categories": out})
}

func (a *API) handleListCategoryWords(c *gin.Context) {
	cat, ok := a.vocab.Category(c.Param("id"))
	if !ok {
		a.abortWithError(c, errors.New(errors.CodeNotFound,
			errors.WithMessagef("category not found: %s", c.Param("id"))))
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": cat.Name, "words": cat.Words})
}

func (a *API) handleListSavedWords(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"words": a.account.SavedWords()})
}

func (a *API) handleSaveWord(c *gin.Context) {
	var w domain.SavedWord
	if err := c.ShouldBindJSON(&w); err != nil {
		a.abortWithError(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	if err := a.account.SaveWord(c.Request.Context(), w); err != nil {
		a.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"words": a.account.SavedWords()})
}

func (a *API) handleRemoveWord(c *gin.Context) {
	if err := a.account.RemoveWord(c.Request.Context(), c.Param("id")); err != nil {
		a.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"words": a.account.SavedWords()})
}

func (a *API) handleStartQuiz(c *gin.Context) {
	var req struct {
		Mode       string `json:"mode"`
		Difficulty string `json:"difficulty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		a.abortWithError(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	v, err := a.quiz.StartQuiz(c.Request.Context(), quiz.StartQuizRequest{
		Mode:       req.Mode,
		Difficulty: req.Difficulty,
	})
	if err != nil {
		a.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"session": v})
}

func (a *API) handleGetQuiz(c *gin.Context) {
	v, err := a.quiz.GetSession(c.Request.Context(), quiz.GetSessionRequest{
		SessionID: c.Param("id"),
	})
	if err != nil {
		a.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": v})
}

func (a *API) handleSubmitAnswer(c *gin.Context) {
	var req struct {
		Answer string `json:"answer"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		a.abortWithError(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	resp, err := a.quiz.SubmitAnswer(c.Request.Context(), quiz.SubmitAnswerRequest{
		SessionID: c.Param("id"),
		Answer:    req.Answer,
	})
	if err != nil {
		a.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (a *API) handleMatchPair(c *gin.Context) {
	var req struct {
		English string `json:"english"`
		Turkish string `json:"turkish"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		a.abortWithError(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	resp, err := a.quiz.MatchPair(c.Request.Context(), quiz.MatchPairRequest{
		SessionID: c.Param("id"),
		English:   req.English,
		Turkish:   req.Turkish,
	})
	if err != nil {
		a.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (a *API) handleRestartQuiz(c *gin.Context) {
	v, err := a.quiz.RestartQuiz(c.Request.Context(), quiz.RestartQuizRequest{
		SessionID: c.Param("id"),
	})
	if err != nil {
		a.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": v})
}

func (a *API) handleFinishQuiz(c *gin.Context) {
	res, err := a.quiz.FinishQuiz(c.Request.Context(), quiz.FinishQuizRequest{
		SessionID: c.Param("id"),
	})
	if err != nil {
		a.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": res})
}

// The message shown when the practice service is unreachable or returns
// something unparseable. The session stays intact.
const practiceFallback = "Sorry, an error occurred. Please try again."

func (a *API) handlePractice(c *gin.Context) {
	var req struct {
		Word string `json:"word"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		a.abortWithError(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	result, err := a.practice.GeneratePractice(c.Request.Context(), req.Word)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "api: practice generation failed",
			"word", req.Word, "error", err)
		c.JSON(http.StatusOK, gin.H{"fallback": true, "message": practiceFallback})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

func (a *API) handleListResults(c *gin.Context) {
	results, err := a.history.ListResults(c.Request.Context(), history.ListResultsRequest{})
	if err != nil {
		a.abortWithError(c, err)
		return
	}

	avg, err := a.history.AverageAccuracy(c.Request.Context())
	if err != nil {
		a.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results, "average_accuracy": avg})
}

func (a *API) abortWithError(c *gin.Context, err error) {
	e := errors.Convert(err)
	if e.Code == errors.CodeInternal {
		slog.ErrorContext(c.Request.Context(), "api: internal error", "error", e)
	}

	c.AbortWithStatusJSON(e.HTTPStatusCode(), gin.H{
		"code":    e.Code,
		"message": e.Message,
	})
}
