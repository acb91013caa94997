package repository

import (
	"context"

	"sniperok/internal/domain"
	"sniperok/internal/game"

	"github.com/jackc/pgx/v5/pgxpool"
)

type WeaponRepository struct {
	db *pgxpool.Pool
}

func NewWeaponRepository(db *pgxpool.Pool) *WeaponRepository {
	return &WeaponRepository{db: db}
}

func (r *WeaponRepository) List(ctx context.Context) ([]domain.Weapon, error) {
	rows, err := r.db.Query(ctx, `SELECT code, level FROM weapon ORDER BY level, code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []domain.Weapon{}
	for rows.Next() {
		var w domain.Weapon
		if err := rows.Scan(&w.Code, &w.Level); err != nil {
			return nil, err
		}
		res = append(res, w)
	}
	return res, rows.Err()
}

func (r *WeaponRepository) Exists(ctx context.Context, code string) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM weapon WHERE code = $1)`, code).Scan(&ok)
	return ok, err
}

// VictoryTable loads the weapon_victory rules.
func (r *WeaponRepository) VictoryTable(ctx context.Context) (*game.VictoryTable, error) {
	rows, err := r.db.Query(ctx, `SELECT winner_weapon_code, loser_weapon_code FROM weapon_victory`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var victories []domain.WeaponVictory
	for rows.Next() {
		var v domain.WeaponVictory
		if err := rows.Scan(&v.Winner, &v.Loser); err != nil {
			return nil, err
		}
		victories = append(victories, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return game.NewVictoryTable(victories), nil
}
