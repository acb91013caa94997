package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sniperok/internal/domain"
	"sniperok/internal/game"
	"sniperok/internal/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// GameRepository is the only writer of game, game_player, game_round and
// player_turn. Store errors are logged here and reported to callers as
// false / nil / StatusUnknown.
type GameRepository struct {
	db               *pgxpool.Pool
	weapons          *WeaponRepository
	tracer           trace.Tracer
	defaultMaxRounds int
	now              func() time.Time
}

func NewGameRepository(db *pgxpool.Pool, weapons *WeaponRepository, tracer trace.Tracer, defaultMaxRounds int) *GameRepository {
	if defaultMaxRounds < 1 {
		defaultMaxRounds = 1
	}
	return &GameRepository{
		db:               db,
		weapons:          weapons,
		tracer:           tracer,
		defaultMaxRounds: defaultMaxRounds,
		now:              time.Now,
	}
}

func (r *GameRepository) start(ctx context.Context, op string, gameID int64) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, "GameRepository."+op, trace.WithAttributes(attribute.Int64("game_id", gameID)))
}

// fail logs a store error with the operation and key ids and marks the span.
func fail(ctx context.Context, span trace.Span, op string, err error, args ...any) {
	span.RecordError(err)
	span.SetStatus(codes.Error, op)
	logger.WithContext(ctx).Error(op+" failed", append([]any{"op", op, "error", err}, args...)...)
}

func (r *GameRepository) CreateGame(ctx context.Context, isPublic bool, minPlayers, maxRounds int, startTime time.Time, userID string) (int64, bool) {
	const op = "createGame"
	ctx, span := r.start(ctx, "CreateGame", 0)
	defer span.End()

	if maxRounds <= 0 {
		maxRounds = r.defaultMaxRounds
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		fail(ctx, span, op, err, "user_id", userID)
		return 0, false
	}
	defer tx.Rollback(ctx)

	var gameID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO game (is_public, min_players, max_rounds, start_time, status_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		isPublic, minPlayers, maxRounds, startTime, domain.StatusPending.Code(),
	).Scan(&gameID)
	if err != nil {
		fail(ctx, span, op, err, "user_id", userID)
		return 0, false
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO game_round (game_id, round_seq, status_id) VALUES ($1, 1, $2)`,
		gameID, domain.StatusPending.Code(),
	); err != nil {
		fail(ctx, span, op, err, "game_id", gameID, "user_id", userID)
		return 0, false
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO game_player (game_id, player_uuid, player_seq, status_id) VALUES ($1, $2, 1, $3)`,
		gameID, userID, domain.PlayerStatusFor(1).Code(),
	); err != nil {
		fail(ctx, span, op, err, "game_id", gameID, "user_id", userID)
		return 0, false
	}

	if err := tx.Commit(ctx); err != nil {
		fail(ctx, span, op, err, "game_id", gameID, "user_id", userID)
		return 0, false
	}

	span.SetAttributes(attribute.Int64("game_id", gameID))
	logger.WithContext(ctx).Info("game created", "game_id", gameID, "user_id", userID, "max_rounds", maxRounds)
	return gameID, true
}

const gameDetailSQL = `
	SELECT g.id, g.status_id, COALESCE(cu.username, 'guest'), g.is_public, g.start_time,
	       g.min_players, g.max_rounds,
	       (SELECT COUNT(*) FROM game_player p WHERE p.game_id = g.id),
	       COALESCE(cr.round_seq, 0), COALESCE(cr.status_id, 0)
	FROM game g
	LEFT JOIN game_player cp ON cp.game_id = g.id AND cp.player_seq = 1
	LEFT JOIN "user" cu ON cu.id = cp.player_uuid
	LEFT JOIN LATERAL (
		SELECT round_seq, status_id FROM game_round
		WHERE game_id = g.id
		ORDER BY round_seq DESC
		LIMIT 1
	) cr ON TRUE
	WHERE g.id = $1`

func gameDetail(ctx context.Context, q querier, gameID int64) (*domain.GameDetail, error) {
	var (
		d                   domain.GameDetail
		status, roundStatus int
	)
	err := q.QueryRow(ctx, gameDetailSQL, gameID).Scan(
		&d.GameID,
		&status,
		&d.Curator,
		&d.IsPublic,
		&d.StartTime,
		&d.MinPlayers,
		&d.MaxRounds,
		&d.Players,
		&d.CurrentRound,
		&roundStatus,
	)
	if err != nil {
		return nil, err
	}
	d.Status = domain.StatusFromCode(status)
	d.CurrentRoundStatus = domain.StatusFromCode(roundStatus)
	return &d, nil
}

// GetGameDetail returns nil when the game doesn't exist.
func (r *GameRepository) GetGameDetail(ctx context.Context, gameID int64) *domain.GameDetail {
	ctx, span := r.start(ctx, "GetGameDetail", gameID)
	defer span.End()

	d, err := gameDetail(ctx, r.db, gameID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		fail(ctx, span, "getGameDetail", err, "game_id", gameID)
		return nil
	}
	return d
}

// GetPlayerSequence returns nil when the user hasn't joined the game.
func (r *GameRepository) GetPlayerSequence(ctx context.Context, gameID int64, userID string) *domain.PlayerSequence {
	ctx, span := r.start(ctx, "GetPlayerSequence", gameID)
	defer span.End()

	var ps domain.PlayerSequence
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(u.username, 'guest'), p.player_seq
		 FROM game_player p
		 LEFT JOIN "user" u ON u.id = p.player_uuid
		 WHERE p.game_id = $1 AND p.player_uuid = $2`,
		gameID, userID,
	).Scan(&ps.Username, &ps.PlayerSeq)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		fail(ctx, span, "getPlayerSequence", err, "game_id", gameID, "user_id", userID)
		return nil
	}
	return &ps
}

// lockGame takes the row lock that serializes joins and round creation.
func lockGame(ctx context.Context, tx pgx.Tx, gameID int64) error {
	var id int64
	return tx.QueryRow(ctx, `SELECT id FROM game WHERE id = $1 FOR UPDATE`, gameID).Scan(&id)
}

// JoinGame adds the user to the game, or refreshes the status of an existing
// member. A member keeps its sequence number forever.
func (r *GameRepository) JoinGame(ctx context.Context, gameID int64, userID string) bool {
	const op = "joinGame"
	ctx, span := r.start(ctx, "JoinGame", gameID)
	defer span.End()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		fail(ctx, span, op, err, "game_id", gameID, "user_id", userID)
		return false
	}
	defer tx.Rollback(ctx)

	if err := lockGame(ctx, tx, gameID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.WithContext(ctx).Warn("join of unknown game", "op", op, "game_id", gameID, "user_id", userID)
			return false
		}
		fail(ctx, span, op, err, "game_id", gameID, "user_id", userID)
		return false
	}

	var seq int
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(
			(SELECT player_seq FROM game_player WHERE game_id = $1 AND player_uuid = $2),
			(SELECT COUNT(*) + 1 FROM game_player WHERE game_id = $1)
		)`,
		gameID, userID,
	).Scan(&seq)
	if err != nil {
		fail(ctx, span, op, err, "game_id", gameID, "user_id", userID)
		return false
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO game_player (game_id, player_uuid, player_seq, status_id)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (game_id, player_uuid) DO UPDATE SET status_id = EXCLUDED.status_id`,
		gameID, userID, seq, domain.PlayerStatusFor(seq).Code(),
	); err != nil {
		fail(ctx, span, op, err, "game_id", gameID, "user_id", userID, "player_seq", seq)
		return false
	}

	if err := tx.Commit(ctx); err != nil {
		fail(ctx, span, op, err, "game_id", gameID, "user_id", userID)
		return false
	}
	return true
}

// PlayTurn stores the player's weapon for the current round. The first
// submission wins; later submissions for the same round succeed without
// changing anything. Rounds that are over, or no longer current, refuse turns.
func (r *GameRepository) PlayTurn(ctx context.Context, gameID int64, userID string, roundSeq int, weaponCode string, responseTimeMillis int) bool {
	const op = "playTurn"
	ctx, span := r.start(ctx, "PlayTurn", gameID)
	defer span.End()
	log := logger.WithContext(ctx).With("op", op, "game_id", gameID, "user_id", userID, "round_seq", roundSeq)

	if r.GetPlayerSequence(ctx, gameID, userID) == nil {
		log.Warn("turn from a user that has not joined")
		return false
	}

	known, err := r.weapons.Exists(ctx, weaponCode)
	if err != nil {
		fail(ctx, span, op, err, "game_id", gameID, "weapon", weaponCode)
		return false
	}
	if !known {
		log.Warn("unknown weapon", "weapon", weaponCode)
		return false
	}

	// only the latest round of an unfinished game takes turns
	tag, err := r.db.Exec(ctx,
		`INSERT INTO player_turn (game_id, player_uuid, round_seq, weapon_code, response_time_millis)
		 SELECT $1, $2, $3, $4, $5
		 FROM game_round gr
		 JOIN game g ON g.id = gr.game_id
		 WHERE gr.game_id = $1 AND gr.round_seq = $3
		   AND gr.status_id <> $6 AND g.status_id <> $6
		   AND gr.round_seq = (SELECT MAX(round_seq) FROM game_round WHERE game_id = $1)
		 ON CONFLICT (game_id, player_uuid, round_seq) DO NOTHING`,
		gameID, userID, roundSeq, weaponCode, responseTimeMillis, domain.StatusInactive.Code(),
	)
	if err != nil {
		fail(ctx, span, op, err, "game_id", gameID, "user_id", userID, "round_seq", roundSeq)
		return false
	}
	if tag.RowsAffected() > 0 {
		return true
	}

	var played bool
	err = r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM player_turn WHERE game_id = $1 AND player_uuid = $2 AND round_seq = $3)`,
		gameID, userID, roundSeq,
	).Scan(&played)
	if err != nil {
		fail(ctx, span, op, err, "game_id", gameID, "user_id", userID, "round_seq", roundSeq)
		return false
	}
	if !played {
		log.Warn("turn for a closed round")
		return false
	}
	log.Debug("duplicate turn ignored")
	return true
}

// UpdateCurrentRoundStatus moves the latest round forward. Setting a round
// inactive may finish the game, so the game status is refreshed afterwards.
func (r *GameRepository) UpdateCurrentRoundStatus(ctx context.Context, gameID int64, status domain.Status) bool {
	const op = "updateCurrentRoundStatus"
	ctx, span := r.start(ctx, "UpdateCurrentRoundStatus", gameID)
	defer span.End()
	log := logger.WithContext(ctx).With("op", op, "game_id", gameID, "status", status.String())

	switch status {
	case domain.StatusPending, domain.StatusActive, domain.StatusInactive:
	default:
		log.Warn("not a round status")
		return false
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		fail(ctx, span, op, err, "game_id", gameID)
		return false
	}
	defer tx.Rollback(ctx)

	var roundSeq, code int
	err = tx.QueryRow(ctx,
		`SELECT round_seq, status_id FROM game_round
		 WHERE game_id = $1
		 ORDER BY round_seq DESC
		 LIMIT 1
		 FOR UPDATE`,
		gameID,
	).Scan(&roundSeq, &code)
	if errors.Is(err, pgx.ErrNoRows) {
		log.Warn("game has no rounds")
		return false
	}
	if err != nil {
		fail(ctx, span, op, err, "game_id", gameID)
		return false
	}

	current := domain.StatusFromCode(code)
	if !current.CanAdvanceTo(status) {
		log.Warn("round status would move backwards", "round_seq", roundSeq, "current", current.String())
		return false
	}

	if current != status {
		if _, err := tx.Exec(ctx,
			`UPDATE game_round SET status_id = $3 WHERE game_id = $1 AND round_seq = $2`,
			gameID, roundSeq, status.Code(),
		); err != nil {
			fail(ctx, span, op, err, "game_id", gameID, "round_seq", roundSeq)
			return false
		}
	}

	if err := tx.Commit(ctx); err != nil {
		fail(ctx, span, op, err, "game_id", gameID)
		return false
	}

	if status == domain.StatusInactive {
		if d := r.GetGameDetail(ctx, gameID); d != nil {
			r.RefreshGameStatus(ctx, d)
		}
	}
	return true
}

// RefreshGameStatus applies every transition that is due for the game, so a
// pending game whose last round is already over goes straight to inactive.
// Each step is a compare-and-set on the stored status; a caller that loses the
// race does nothing and reports what is stored.
func (r *GameRepository) RefreshGameStatus(ctx context.Context, detail *domain.GameDetail) domain.Status {
	if detail == nil {
		return domain.StatusUnknown
	}
	ctx, span := r.start(ctx, "RefreshGameStatus", detail.GameID)
	defer span.End()

	d := *detail
	for {
		next := game.NextGameStatus(&d, r.now())
		if next == d.Status {
			return d.Status
		}

		moved, err := r.transition(ctx, d.GameID, d.Status, next)
		if err != nil {
			fail(ctx, span, "refreshGameStatus", err, "game_id", d.GameID, "from", d.Status.String(), "to", next.String())
			return domain.StatusUnknown
		}
		if !moved {
			stored, err := r.storedStatus(ctx, d.GameID)
			if err != nil {
				fail(ctx, span, "refreshGameStatus", err, "game_id", d.GameID)
				return domain.StatusUnknown
			}
			return stored
		}

		logger.WithContext(ctx).Info("game status changed", "game_id", d.GameID, "from", d.Status.String(), "to", next.String())
		d.Status = next
	}
}

// transition flips the game status from -> to. Only the caller whose UPDATE
// hits the row issues the snaps award, in the same transaction.
func (r *GameRepository) transition(ctx context.Context, gameID int64, from, to domain.Status) (bool, error) {
	if !from.CanAdvanceTo(to) {
		return false, fmt.Errorf("illegal transition %s -> %s", from, to)
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE game SET status_id = $3 WHERE id = $1 AND status_id = $2`,
		gameID, from.Code(), to.Code(),
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() != 1 {
		return false, nil
	}

	if to == domain.StatusInactive {
		if err := r.AwardSnapsBoosts(ctx, tx, gameID); err != nil {
			return false, fmt.Errorf("award snaps: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (r *GameRepository) storedStatus(ctx context.Context, gameID int64) (domain.Status, error) {
	var code int
	if err := r.db.QueryRow(ctx, `SELECT status_id FROM game WHERE id = $1`, gameID).Scan(&code); err != nil {
		return domain.StatusUnknown, err
	}
	return domain.StatusFromCode(code), nil
}

// NextRound opens round CurrentRound+1. When the current round isn't over or
// the game is on its last round the unchanged detail is returned; callers
// compare CurrentRound to tell the two apart. nil means the game is unknown
// or the store failed.
func (r *GameRepository) NextRound(ctx context.Context, gameID int64) *domain.GameDetail {
	const op = "nextRound"
	ctx, span := r.start(ctx, "NextRound", gameID)
	defer span.End()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		fail(ctx, span, op, err, "game_id", gameID)
		return nil
	}
	defer tx.Rollback(ctx)

	if err := lockGame(ctx, tx, gameID); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			fail(ctx, span, op, err, "game_id", gameID)
		}
		return nil
	}

	d, err := gameDetail(ctx, tx, gameID)
	if err != nil {
		fail(ctx, span, op, err, "game_id", gameID)
		return nil
	}

	if err := game.CanAdvanceRound(d); err != nil {
		logger.WithContext(ctx).Warn("round not advanced", "op", op, "game_id", gameID,
			"current_round", d.CurrentRound, "max_rounds", d.MaxRounds, "reason", err.Error())
		return d
	}

	next := d.CurrentRound + 1
	tag, err := tx.Exec(ctx,
		`INSERT INTO game_round (game_id, round_seq, status_id) VALUES ($1, $2, $3)
		 ON CONFLICT (game_id, round_seq) DO NOTHING`,
		gameID, next, domain.StatusPending.Code(),
	)
	if err != nil {
		fail(ctx, span, op, err, "game_id", gameID, "round_seq", next)
		return nil
	}
	if err := tx.Commit(ctx); err != nil {
		fail(ctx, span, op, err, "game_id", gameID)
		return nil
	}

	if tag.RowsAffected() == 1 {
		d.CurrentRound = next
		d.CurrentRoundStatus = domain.StatusPending
	}
	return d
}

// GetRoundScore returns an empty score with StatusUnknown when nobody played
// the round. nil means the store failed.
func (r *GameRepository) GetRoundScore(ctx context.Context, gameID int64, roundSeq int) *domain.RoundScore {
	const op = "getRoundScore"
	ctx, span := r.start(ctx, "GetRoundScore", gameID)
	defer span.End()

	rs := &domain.RoundScore{
		GameID:   gameID,
		RoundSeq: roundSeq,
		Status:   domain.StatusUnknown,
		Scores:   []domain.PlayerScore{},
	}

	rows, err := r.db.Query(ctx,
		`SELECT player_seq, username, weapon_code, response_time_millis, wins, losses, ties, score
		 FROM round_score
		 WHERE game_id = $1 AND round_seq = $2
		 ORDER BY player_seq`,
		gameID, roundSeq,
	)
	if err != nil {
		fail(ctx, span, op, err, "game_id", gameID, "round_seq", roundSeq)
		return nil
	}
	defer rows.Close()

	for rows.Next() {
		var ps domain.PlayerScore
		if err := rows.Scan(
			&ps.PlayerSeq,
			&ps.Username,
			&ps.Weapon,
			&ps.ResponseTimeMillis,
			&ps.Wins,
			&ps.Losses,
			&ps.Ties,
			&ps.Score,
		); err != nil {
			fail(ctx, span, op, err, "game_id", gameID, "round_seq", roundSeq)
			return nil
		}
		rs.Scores = append(rs.Scores, ps)
	}
	if err := rows.Err(); err != nil {
		fail(ctx, span, op, err, "game_id", gameID, "round_seq", roundSeq)
		return nil
	}

	if len(rs.Scores) == 0 {
		return rs
	}

	var code int
	err = r.db.QueryRow(ctx,
		`SELECT status_id FROM game_round WHERE game_id = $1 AND round_seq = $2`,
		gameID, roundSeq,
	).Scan(&code)
	if err != nil {
		fail(ctx, span, op, err, "game_id", gameID, "round_seq", roundSeq)
		return nil
	}
	rs.Status = domain.StatusFromCode(code)
	return rs
}

func gameSummary(ctx context.Context, q querier, gameID int64) (*domain.GameSummary, error) {
	rows, err := q.Query(ctx,
		`SELECT p.player_uuid::text, COALESCE(u.username, 'guest'),
		        COALESCE(SUM(rs.wins), 0)::INT, (u.email IS NULL)
		 FROM game_player p
		 LEFT JOIN "user" u ON u.id = p.player_uuid
		 LEFT JOIN round_score rs ON rs.game_id = p.game_id AND rs.player_uuid = p.player_uuid
		 WHERE p.game_id = $1
		 GROUP BY p.player_seq, p.player_uuid, u.username, u.email
		 ORDER BY p.player_seq`,
		gameID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summary := &domain.GameSummary{GameID: gameID, PlayerScores: []domain.PlayerTotal{}}
	for rows.Next() {
		var (
			pt        domain.PlayerTotal
			anonymous bool
		)
		if err := rows.Scan(&pt.UserID, &pt.Username, &pt.TotalWins, &anonymous); err != nil {
			return nil, err
		}
		if anonymous {
			summary.HasAnonymousPlayers = true
		}
		summary.PlayerScores = append(summary.PlayerScores, pt)
	}
	return summary, rows.Err()
}

// GetGameSummary returns nil for an unknown game or a store failure.
func (r *GameRepository) GetGameSummary(ctx context.Context, gameID int64) *domain.GameSummary {
	ctx, span := r.start(ctx, "GetGameSummary", gameID)
	defer span.End()

	summary, err := gameSummary(ctx, r.db, gameID)
	if err != nil {
		fail(ctx, span, "getGameSummary", err, "game_id", gameID)
		return nil
	}
	// every game has at least its curator
	if len(summary.PlayerScores) == 0 {
		return nil
	}
	return summary
}

// AwardSnapsBoosts credits one snaps boost to the unique top scorer of the
// game. It must run in the transaction that flipped the game to inactive.
func (r *GameRepository) AwardSnapsBoosts(ctx context.Context, tx pgx.Tx, gameID int64) error {
	ctx, span := r.start(ctx, "AwardSnapsBoosts", gameID)
	defer span.End()

	summary, err := gameSummary(ctx, tx, gameID)
	if err != nil {
		return fmt.Errorf("game summary: %w", err)
	}

	winner, ok := game.SnapsWinner(summary)
	if !ok {
		logger.WithContext(ctx).Info("no snaps awarded", "game_id", gameID,
			"players", len(summary.PlayerScores), "has_anonymous", summary.HasAnonymousPlayers)
		return nil
	}

	tag, err := tx.Exec(ctx,
		`INSERT INTO user_boost (user_uuid, boost_type_code, quantity, game_id)
		 VALUES ($1, $2, 1, $3)
		 ON CONFLICT DO NOTHING`,
		winner.UserID, domain.BoostSnaps, gameID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return nil
	}

	logger.WithContext(ctx).Info("snaps awarded", "game_id", gameID, "user_id", winner.UserID, "wins", winner.TotalWins)
	return insertAudit(ctx, tx, &domain.AuditLog{
		UserID:   winner.UserID,
		Action:   domain.AuditActionSnapsAward,
		Category: domain.AuditCategoryGame,
		Details:  map[string]any{"game_id": gameID, "wins": winner.TotalWins},
	})
}

// DeleteGame removes the game and everything hanging off it.
func (r *GameRepository) DeleteGame(ctx context.Context, gameID int64) bool {
	const op = "deleteGame"
	ctx, span := r.start(ctx, "DeleteGame", gameID)
	defer span.End()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		fail(ctx, span, op, err, "game_id", gameID)
		return false
	}
	defer tx.Rollback(ctx)

	for _, q := range []string{
		`DELETE FROM player_turn WHERE game_id = $1`,
		`DELETE FROM game_player WHERE game_id = $1`,
		`DELETE FROM game_round WHERE game_id = $1`,
	} {
		if _, err := tx.Exec(ctx, q, gameID); err != nil {
			fail(ctx, span, op, err, "game_id", gameID)
			return false
		}
	}

	tag, err := tx.Exec(ctx, `DELETE FROM game WHERE id = $1`, gameID)
	if err != nil {
		fail(ctx, span, op, err, "game_id", gameID)
		return false
	}
	if tag.RowsAffected() == 0 {
		return false
	}

	if err := tx.Commit(ctx); err != nil {
		fail(ctx, span, op, err, "game_id", gameID)
		return false
	}
	logger.WithContext(ctx).Info("game deleted", "game_id", gameID)
	return true
}

// ListGames returns public games plus private games the user joined, latest first.
func (r *GameRepository) ListGames(ctx context.Context, userID string) ([]domain.GameListItem, error) {
	ctx, span := r.start(ctx, "ListGames", 0)
	defer span.End()

	rows, err := r.db.Query(ctx,
		`SELECT g.id, g.status_id, COALESCE(cu.username, 'guest'), g.is_public,
		        (SELECT COUNT(*) FROM game_player p WHERE p.game_id = g.id),
		        g.min_players, g.max_rounds, g.start_time
		 FROM game g
		 LEFT JOIN game_player cp ON cp.game_id = g.id AND cp.player_seq = 1
		 LEFT JOIN "user" cu ON cu.id = cp.player_uuid
		 WHERE g.is_public
		    OR EXISTS (SELECT 1 FROM game_player m WHERE m.game_id = g.id AND m.player_uuid::text = $1)
		 ORDER BY g.start_time DESC, g.id DESC
		 LIMIT 100`,
		userID,
	)
	if err != nil {
		fail(ctx, span, "listGames", err, "user_id", userID)
		return nil, err
	}
	defer rows.Close()

	res := []domain.GameListItem{}
	for rows.Next() {
		var (
			g    domain.GameListItem
			code int
		)
		if err := rows.Scan(&g.GameID, &code, &g.Curator, &g.IsPublic, &g.Players, &g.MinPlayers, &g.MaxRounds, &g.StartTime); err != nil {
			return nil, err
		}
		g.Status = domain.StatusFromCode(code)
		res = append(res, g)
	}
	return res, rows.Err()
}
