package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nemanja-m/divvy/internal/coordinator/core"
	"github.com/nemanja-m/divvy/pkg/codec"
)

const (
	fieldPayload     = "payload"
	fieldStatus      = "status"
	fieldRequirement = "requirement"
	fieldDivisor     = "divisor"
	taskFieldPrefix  = "task:"
)

// DefaultRedisTimeout bounds one store operation when no timeout is given.
const DefaultRedisTimeout = 5 * time.Second

// redisStore carries what both stores share. Every operation runs under its
// own context bounded by timeout.
type redisStore struct {
	rdb     *redis.Client
	prefix  string
	timeout time.Duration
}

func newRedisStore(rdb *redis.Client, prefix string, timeout time.Duration) redisStore {
	if timeout <= 0 {
		timeout = DefaultRedisTimeout
	}
	return redisStore{rdb: rdb, prefix: prefix, timeout: timeout}
}

func (s redisStore) op() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// RedisJobStore keeps every job in a hash holding its JSON payload, indexes
// jobs by submission time in a sorted set and stores each result as a hash
// with one field per finished dividend.
type RedisJobStore struct {
	redisStore
}

func NewRedisJobStore(rdb *redis.Client, prefix string, timeout time.Duration) *RedisJobStore {
	return &RedisJobStore{redisStore: newRedisStore(rdb, prefix, timeout)}
}

func (s *RedisJobStore) jobKey(id uuid.UUID) string {
	return fmt.Sprintf("%sjob:%s", s.prefix, id)
}

func (s *RedisJobStore) resultKey(id uuid.UUID) string {
	return fmt.Sprintf("%sresult:%s", s.prefix, id)
}

func (s *RedisJobStore) indexKey() string {
	return s.prefix + "jobs"
}

func (s *RedisJobStore) SaveJob(job *core.Job, result *core.Result) error {
	if job == nil || result == nil {
		return fmt.Errorf("cannot save nil job or result")
	}
	payload, err := codec.Encode(job)
	if err != nil {
		return err
	}
	requirement, err := codec.Encode(result.Requirement)
	if err != nil {
		return err
	}

	ctx, cancel := s.op()
	defer cancel()
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, s.jobKey(job.ID), fieldPayload, payload, fieldStatus, job.Status.String())
	pipe.ZAdd(ctx, s.indexKey(), redis.Z{
		Score:  float64(job.SubmittedAt.UnixMilli()),
		Member: job.ID.String(),
	})
	pipe.Del(ctx, s.resultKey(job.ID))
	pipe.HSet(ctx, s.resultKey(job.ID), fieldRequirement, requirement, fieldDivisor, len(result.Tasks))
	for i, tr := range result.Tasks {
		if tr == nil {
			continue
		}
		encoded, err := codec.Encode(tr)
		if err != nil {
			return err
		}
		pipe.HSet(ctx, s.resultKey(job.ID), taskField(i), encoded)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisJobStore) UpdateJob(job *core.Job) error {
	ctx, cancel := s.op()
	defer cancel()
	exists, err := s.rdb.Exists(ctx, s.jobKey(job.ID)).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", core.ErrJobNotFound, job.ID)
	}
	payload, err := codec.Encode(job)
	if err != nil {
		return err
	}
	return s.rdb.HSet(ctx, s.jobKey(job.ID), fieldPayload, payload, fieldStatus, job.Status.String()).Err()
}

func (s *RedisJobStore) GetJobByID(id uuid.UUID) (*core.Job, error) {
	ctx, cancel := s.op()
	defer cancel()
	payload, err := s.rdb.HGet(ctx, s.jobKey(id), fieldPayload).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", core.ErrJobNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	job, err := codec.Decode[core.Job](payload)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", id, err)
	}
	return &job, nil
}

func (s *RedisJobStore) GetJobs(filter core.JobFilter) ([]*core.Job, int, error) {
	ctx, cancel := s.op()
	defer cancel()
	ids, err := s.rdb.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, 0, err
	}

	pipe := s.rdb.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGet(ctx, s.prefix+"job:"+id, fieldPayload)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, err
	}

	jobs := make([]*core.Job, 0, len(ids))
	for i, cmd := range cmds {
		payload, err := cmd.Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, 0, err
		}
		job, err := codec.Decode[core.Job](payload)
		if err != nil {
			return nil, 0, fmt.Errorf("job %s: %w", ids[i], err)
		}
		jobs = append(jobs, &job)
	}

	page, total := applyFilter(jobs, filter)
	return page, total, nil
}

func (s *RedisJobStore) UpdateResult(jobID uuid.UUID, index int, tr *core.TaskResult) error {
	ctx, cancel := s.op()
	defer cancel()
	divisor, err := s.rdb.HGet(ctx, s.resultKey(jobID), fieldDivisor).Int()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %s", core.ErrJobNotFound, jobID)
	}
	if err != nil {
		return err
	}
	if index < 0 || index >= divisor {
		return fmt.Errorf("%w: %d of %d", core.ErrDividendOutOfRange, index, divisor)
	}

	c := *tr
	c.Index = index
	encoded, err := codec.Encode(&c)
	if err != nil {
		return err
	}
	return s.rdb.HSet(ctx, s.resultKey(jobID), taskField(index), encoded).Err()
}

func (s *RedisJobStore) GetResult(jobID uuid.UUID) (*core.Result, error) {
	ctx, cancel := s.op()
	defer cancel()
	fields, err := s.rdb.HGetAll(ctx, s.resultKey(jobID)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrJobNotFound, jobID)
	}

	req, err := codec.Decode[core.Requirement](fields[fieldRequirement])
	if err != nil {
		return nil, fmt.Errorf("result %s: %w", jobID, err)
	}
	divisor, err := strconv.Atoi(fields[fieldDivisor])
	if err != nil {
		return nil, fmt.Errorf("result %s: invalid divisor: %w", jobID, err)
	}

	result := core.NewResult(req, divisor)
	for field, value := range fields {
		suffix, ok := strings.CutPrefix(field, taskFieldPrefix)
		if !ok {
			continue
		}
		index, err := strconv.Atoi(suffix)
		if err != nil {
			return nil, fmt.Errorf("result %s: invalid field %q", jobID, field)
		}
		tr, err := codec.Decode[core.TaskResult](value)
		if err != nil {
			return nil, fmt.Errorf("result %s: %w", jobID, err)
		}
		if err := result.Set(index, &tr); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func taskField(index int) string {
	return taskFieldPrefix + strconv.Itoa(index)
}

// RedisWorkerStore keeps workers in hashes and their last heartbeat in a
// sorted set, so stale workers are a range query.
type RedisWorkerStore struct {
	redisStore
}

func NewRedisWorkerStore(rdb *redis.Client, prefix string, timeout time.Duration) *RedisWorkerStore {
	return &RedisWorkerStore{redisStore: newRedisStore(rdb, prefix, timeout)}
}

func (s *RedisWorkerStore) workerKey(id uuid.UUID) string {
	return fmt.Sprintf("%sworker:%s", s.prefix, id)
}

func (s *RedisWorkerStore) heartbeatKey() string {
	return s.prefix + "heartbeats"
}

func (s *RedisWorkerStore) AddWorker(worker *core.Worker) error {
	if worker == nil {
		return fmt.Errorf("worker is nil")
	}
	payload, err := codec.Encode(worker)
	if err != nil {
		return err
	}
	ctx, cancel := s.op()
	defer cancel()
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, s.workerKey(worker.ID), fieldPayload, payload)
	pipe.ZAdd(ctx, s.heartbeatKey(), redis.Z{
		Score:  float64(worker.LastHeartbeatAt.UnixMilli()),
		Member: worker.ID.String(),
	})
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisWorkerStore) GetWorkerByID(id uuid.UUID) (*core.Worker, error) {
	ctx, cancel := s.op()
	defer cancel()
	payload, err := s.rdb.HGet(ctx, s.workerKey(id), fieldPayload).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", core.ErrWorkerNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	worker, err := codec.Decode[core.Worker](payload)
	if err != nil {
		return nil, fmt.Errorf("worker %s: %w", id, err)
	}
	return &worker, nil
}

func (s *RedisWorkerStore) GetAllWorkers() ([]*core.Worker, error) {
	ctx, cancel := s.op()
	defer cancel()
	ids, err := s.rdb.ZRange(ctx, s.heartbeatKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	return s.getWorkers(ids)
}

func (s *RedisWorkerStore) getWorkers(ids []string) ([]*core.Worker, error) {
	workers := make([]*core.Worker, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid worker id %q: %w", raw, err)
		}
		worker, err := s.GetWorkerByID(id)
		if errors.Is(err, core.ErrWorkerNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		workers = append(workers, worker)
	}
	return workers, nil
}

func (s *RedisWorkerStore) UpdateWorkerHeartbeat(id uuid.UUID, timestamp time.Time) error {
	return s.update(id, func(w *core.Worker) { w.LastHeartbeatAt = timestamp })
}

func (s *RedisWorkerStore) UpdateWorkerStatus(id uuid.UUID, status core.WorkerStatus) error {
	return s.update(id, func(w *core.Worker) { w.Status = status })
}

func (s *RedisWorkerStore) update(id uuid.UUID, apply func(*core.Worker)) error {
	worker, err := s.GetWorkerByID(id)
	if err != nil {
		return err
	}
	apply(worker)
	return s.AddWorker(worker)
}

func (s *RedisWorkerStore) RemoveWorker(id uuid.UUID) error {
	ctx, cancel := s.op()
	defer cancel()
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, s.workerKey(id))
	pipe.ZRem(ctx, s.heartbeatKey(), id.String())
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisWorkerStore) GetStaleWorkers(threshold time.Time) ([]*core.Worker, error) {
	ctx, cancel := s.op()
	defer cancel()
	ids, err := s.rdb.ZRangeByScore(ctx, s.heartbeatKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(threshold.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return nil, err
	}
	return s.getWorkers(ids)
}
