package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"fx-backtester/internal/config"
	"fx-backtester/internal/engine"
	"fx-backtester/internal/model"
	"fx-backtester/internal/storage"
	"fx-backtester/internal/strategy"
)

type Handler struct {
	db       *pgxpool.Pool
	ticks    *storage.TickStore
	results  *storage.ResultStore
	runner   *engine.Runner
	backtest config.BacktestConfig
	logger   *zap.Logger
}

func NewHandler(db *pgxpool.Pool, runner *engine.Runner, backtest config.BacktestConfig, logger *zap.Logger) *Handler {
	return &Handler{
		db:       db,
		ticks:    storage.NewTickStore(db, logger),
		results:  storage.NewResultStore(db, logger),
		runner:   runner,
		backtest: backtest,
		logger:   logger,
	}
}

// NormalizeSymbol unifies symbol formats into a standard one (e.g. EURUSD)
func NormalizeSymbol(s string) string {
	s = strings.ToUpper(s)
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, "/", "")
	s = strings.ReplaceAll(s, "_", "")
	return s
}

// Auth Handlers

func (h *Handler) Register(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
		return
	}

	var userID int64
	err = h.db.QueryRow(c.Request.Context(),
		"INSERT INTO users (email, password_hash) VALUES ($1, $2) RETURNING id",
		req.Email, string(hash)).Scan(&userID)

	if err != nil {
		h.logger.Error("failed to register user", zap.Error(err))
		c.JSON(http.StatusConflict, gin.H{"error": "email already exists"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "user created", "id": userID})
}

func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var userID int64
	var hash string
	err := h.db.QueryRow(c.Request.Context(),
		"SELECT id, password_hash FROM users WHERE email = $1", req.Email).Scan(&userID, &hash)

	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	token, err := GenerateToken(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Data Handlers

func (h *Handler) GetTicks(c *gin.Context) {
	symbol := NormalizeSymbol(c.Param("symbol"))

	rows, err := h.db.Query(c.Request.Context(),
		`SELECT time, symbol, bid, ask, mid, high, low, volume, momentum, pattern
		 FROM ticks WHERE symbol = $1 ORDER BY time DESC LIMIT 100`,
		symbol)
	if err != nil {
		h.logger.Error("failed to query ticks", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	defer rows.Close()

	ticks := make([]model.Tick, 0)
	for rows.Next() {
		var t model.Tick
		if err := rows.Scan(&t.Timestamp, &t.Symbol, &t.Bid, &t.Ask, &t.Mid, &t.High, &t.Low, &t.Volume, &t.Momentum, &t.Pattern); err != nil {
			h.logger.Error("failed to scan tick", zap.Error(err))
			continue
		}
		ticks = append(ticks, t)
	}

	c.JSON(http.StatusOK, ticks)
}

// RunBacktest loads a price series, builds the requested strategy and
// runs it across the configured lot sizes. Responds with the keyed
// bundle map.
func (h *Handler) RunBacktest(c *gin.Context) {
	var req struct {
		Symbol         string                 `json:"symbol" binding:"required"`
		StrategyType   string                 `json:"strategy_type" binding:"required"`
		Config         map[string]interface{} `json:"config"`
		StartTime      time.Time              `json:"start_time" binding:"required"`
		EndTime        time.Time              `json:"end_time" binding:"required"`
		StopLossPips   float64                `json:"stop_loss_pips"`
		TakeProfitPips float64                `json:"take_profit_pips"`
		RecordContext  bool                   `json:"record_context"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	symbol := NormalizeSymbol(req.Symbol)

	series, err := h.ticks.LoadSeries(c.Request.Context(), symbol, req.StartTime, req.EndTime)
	if err != nil {
		h.logger.Error("failed to load series for backtest", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch data"})
		return
	}

	strat, err := strategy.NewStrategy(req.StrategyType, req.Config)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Per-request overrides on top of the service defaults
	cfg := h.backtest
	if req.StopLossPips > 0 {
		cfg.StopLossPips = decimal.NewFromFloat(req.StopLossPips)
	}
	if req.TakeProfitPips > 0 {
		cfg.TakeProfitPips = decimal.NewFromFloat(req.TakeProfitPips)
	}
	cfg.RecordContext = req.RecordContext

	runner := h.runner
	if req.StopLossPips > 0 || req.TakeProfitPips > 0 || req.RecordContext {
		runner = engine.NewRunner(cfg, h.logger)
	}

	results, err := runner.Backtest(c.Request.Context(), strat, series)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	for _, bundle := range results {
		if err := h.results.SaveBundle(c.Request.Context(), bundle); err != nil {
			h.logger.Error("failed to persist result bundle", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, results)
}
