// 活动改期状态的sqlite持久化
package statestore

import (
	"database/sql"
	"fmt"

	"github.com/tsinghua-fib-lab/agentmobility-oss/entity/person"
	_ "modernc.org/sqlite"
)

// Store 活动状态存储
// 功能：把运行中被改期的活动出发触发时刻落盘，重启后恢复
// 说明：只持久化ScheduledStartTime，活动列表本身来自输入数据
type Store struct {
	db *sql.DB
}

// Open 打开状态存储
// 参数：path-sqlite文件路径
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("statestore: open %s: %w", path, err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS activity_state (
		activity_id TEXT PRIMARY KEY,
		person_id TEXT NOT NULL,
		scheduled_start_time REAL NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("statestore: init schema: %w", err)
	}
	log.Infof("state store opened at %s", path)
	return &Store{db: db}, nil
}

// Save 保存全部已调度活动的出发触发时刻
// 说明：整体在一个事务内覆盖写入，未调度（惰性初始化前）的活动不落盘
func (s *Store) Save(persons []*person.Person) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("statestore: begin: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO activity_state (activity_id, person_id, scheduled_start_time)
		VALUES (?, ?, ?)
		ON CONFLICT(activity_id) DO UPDATE SET scheduled_start_time = excluded.scheduled_start_time`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("statestore: prepare: %w", err)
	}
	defer stmt.Close()
	n := 0
	for _, p := range persons {
		for _, a := range p.Identity.Activities {
			if !a.Scheduled() {
				continue
			}
			if _, err := stmt.Exec(a.ID, p.ID, a.ScheduledStartTime); err != nil {
				tx.Rollback()
				return fmt.Errorf("statestore: save activity %s: %w", a.ID, err)
			}
			n++
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("statestore: commit: %w", err)
	}
	log.Debugf("state store: %d activities saved", n)
	return nil
}

// Load 恢复活动的出发触发时刻
// 说明：存储中不存在的活动保持原状，存储中多余的记录忽略
func (s *Store) Load(persons []*person.Person) error {
	rows, err := s.db.Query(`SELECT activity_id, scheduled_start_time FROM activity_state`)
	if err != nil {
		return fmt.Errorf("statestore: load: %w", err)
	}
	defer rows.Close()
	saved := make(map[string]float64)
	for rows.Next() {
		var id string
		var t float64
		if err := rows.Scan(&id, &t); err != nil {
			return fmt.Errorf("statestore: scan: %w", err)
		}
		saved[id] = t
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("statestore: load: %w", err)
	}
	n := 0
	for _, p := range persons {
		for _, a := range p.Identity.Activities {
			if t, ok := saved[a.ID]; ok {
				a.ScheduledStartTime = t
				n++
			}
		}
	}
	log.Infof("state store: %d activities restored", n)
	return nil
}

// Close 关闭状态存储
func (s *Store) Close() error {
	return s.db.Close()
}
