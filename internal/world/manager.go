package world

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/annel0/pixelsim/internal/config"
	"github.com/annel0/pixelsim/internal/logging"
	"github.com/annel0/pixelsim/internal/vec"
	"github.com/annel0/pixelsim/internal/world/material"
)

// Loader сущность (игрок, камера), вокруг которой подгружается мир
type Loader struct {
	ID    uuid.UUID
	Pos   vec.Vec2
	Scale float64
}

// ManagerStats снимок состояния менеджера для метрик
type ManagerStats struct {
	NotGenerated int
	Generating   int
	Cached       int
	Active       int
	Queued       int

	Generated          uint64
	Restored           uint64
	Unloaded           uint64
	GenerationFailures uint64
	PersistFailures    uint64
}

// Manager управляет жизненным циклом чанков: очередь загрузки, поэтапная генерация,
// активация по зонам загрузчиков и выгрузка.
type Manager struct {
	cfg        config.WorldConfig
	store      *ChunkStore
	queue      *LoadQueue
	generator  Generator
	populators []Populator
	maxStage   uint8
	registry   *material.Registry

	loaders map[uuid.UUID]*Loader
	zones   []Zones
	// Ключи из QueueLoad: не выгружаются вместе с ореолом, пока не станут готовыми
	pinned map[ChunkKey]struct{}

	persister ChunkPersister
	events    EventSink
	logger    *logging.Logger

	tick  uint64
	stats ManagerStats
}

// Option настраивает Manager
type Option func(*Manager)

// WithPersister подключает хранилище выгружаемых чанков
func WithPersister(p ChunkPersister) Option {
	return func(m *Manager) { m.persister = p }
}

// WithEventSink подключает канал событий жизненного цикла
func WithEventSink(s EventSink) Option {
	return func(m *Manager) { m.events = s }
}

// WithLogger заменяет логгер компонента world
func WithLogger(l *logging.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager создаёт менеджер чанков
func NewManager(cfg config.WorldConfig, gen Generator, registry *material.Registry, opts ...Option) (*Manager, error) {
	if gen == nil {
		return nil, errors.New("generator is required")
	}
	if registry == nil {
		return nil, errors.New("material registry is required")
	}
	if cfg.LoadBatch <= 0 {
		return nil, fmt.Errorf("load batch must be positive, got %d", cfg.LoadBatch)
	}
	pops := gen.Populators()
	if len(pops) != int(gen.MaxGenStage()) {
		return nil, fmt.Errorf("generator declares %d stages but provides %d populators", gen.MaxGenStage(), len(pops))
	}

	m := &Manager{
		cfg:        cfg,
		store:      NewChunkStore(),
		queue:      NewLoadQueue(),
		generator:  gen,
		populators: pops,
		maxStage:   gen.MaxGenStage(),
		registry:   registry,
		loaders:    make(map[uuid.UUID]*Loader),
		pinned:     make(map[ChunkKey]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = logging.GetWorldLogger()
	}
	return m, nil
}

// Store возвращает хранилище чанков
func (m *Manager) Store() *ChunkStore { return m.store }

// Registry возвращает реестр материалов
func (m *Manager) Registry() *material.Registry { return m.registry }

// Seed возвращает сид мира
func (m *Manager) Seed() int64 { return m.cfg.Seed }

// TickCount возвращает номер последнего выполненного тика
func (m *Manager) TickCount() uint64 { return m.tick }

// fullTarget число стадий, после которого чанк становится готовым
func (m *Manager) fullTarget() int {
	return int(m.maxStage) + 1
}

// AddLoader регистрирует загрузчик и возвращает его ID
func (m *Manager) AddLoader(pos vec.Vec2, scale float64) uuid.UUID {
	id := uuid.New()
	m.loaders[id] = &Loader{ID: id, Pos: pos, Scale: scale}
	return id
}

// MoveLoader перемещает загрузчик
func (m *Manager) MoveLoader(id uuid.UUID, pos vec.Vec2) error {
	l, ok := m.loaders[id]
	if !ok {
		return fmt.Errorf("загрузчик %s: %w", id, ErrUnknownLoader)
	}
	l.Pos = pos
	return nil
}

// RemoveLoader удаляет загрузчик. Его чанки выгрузятся на следующем тике.
func (m *Manager) RemoveLoader(id uuid.UUID) bool {
	if _, ok := m.loaders[id]; !ok {
		return false
	}
	delete(m.loaders, id)
	return true
}

// Loaders возвращает копии загрузчиков в стабильном порядке
func (m *Manager) Loaders() []Loader {
	list := make([]Loader, 0, len(m.loaders))
	for _, l := range m.loaders {
		list = append(list, *l)
	}
	slices.SortFunc(list, func(a, b Loader) int { return bytes.Compare(a.ID[:], b.ID[:]) })
	return list
}

// Zones возвращает зоны, вычисленные на последнем тике
func (m *Manager) Zones() []Zones {
	return slices.Clone(m.zones)
}

// QueueLoad ставит чанк в очередь на полную генерацию.
// Возвращает true, только если ключа не было ни в очереди, ни в памяти.
// Чанк и его ореол генерации не выгружаются, пока чанк не станет готовым.
func (m *Manager) QueueLoad(key ChunkKey) bool {
	if c, ok := m.store.Get(key); !ok || !c.Ready() {
		m.pinned[key] = struct{}{}
	}
	return m.request(key, m.fullTarget())
}

// IsQueued проверяет, стоит ли ключ в очереди загрузки
func (m *Manager) IsQueued(key ChunkKey) bool {
	return m.queue.Contains(key)
}

func (m *Manager) request(key ChunkKey, target int) bool {
	if c, ok := m.store.Get(key); ok {
		if c.State().CompletedStages() < target {
			m.queue.Push(key, target)
		}
		return false
	}
	return m.queue.Push(key, target)
}

// Chunk возвращает резидентный чанк
func (m *Manager) Chunk(key ChunkKey) (*Chunk, bool) {
	return m.store.Get(key)
}

// ChunkState возвращает состояние резидентного чанка
func (m *Manager) ChunkState(key ChunkKey) (ChunkState, bool) {
	c, ok := m.store.Get(key)
	if !ok {
		return ChunkState{}, false
	}
	return c.State(), true
}

// IsActive проверяет, что чанк резидентен и активен
func (m *Manager) IsActive(key ChunkKey) bool {
	c, ok := m.store.Get(key)
	return ok && c.State().Kind == StateActive
}

// Tick выполняет один шаг жизненного цикла: зоны, выгрузка, очередь, генерация, активация
func (m *Manager) Tick(ctx context.Context) error {
	m.tick++
	m.computeZones()
	m.unload(ctx)
	m.enqueueZones()
	if err := m.processQueue(ctx); err != nil {
		return err
	}
	m.updateActivation()
	return nil
}

func (m *Manager) computeZones() {
	m.zones = m.zones[:0]
	for _, l := range m.Loaders() {
		m.zones = append(m.zones, ComputeZones(l.Pos, l.Scale, m.cfg.Zones))
	}
}

func (m *Manager) zoneRects(pick func(Zones) Rect, inflate int) []Rect {
	rects := make([]Rect, 0, len(m.zones))
	for _, z := range m.zones {
		rects = append(rects, pick(z).Inflate(inflate))
	}
	return rects
}

func (m *Manager) unload(ctx context.Context) {
	unload := m.zoneRects(func(z Zones) Rect { return z.Unload }, 0)
	// Чанки ореола генерации нужны соседям на глубину всех стадий
	halo := m.zoneRects(func(z Zones) Rect { return z.Unload }, int(m.maxStage)*ChunkSize)
	for key := range m.pinned {
		r := key.Bounds().Inflate(int(m.maxStage) * ChunkSize)
		unload = append(unload, r)
		halo = append(halo, r)
	}

	for _, key := range m.store.SortedKeys() {
		c, _ := m.store.Get(key)
		zones := unload
		if !c.Ready() {
			zones = halo
		}
		if anyIntersects(zones, key.Bounds()) {
			continue
		}

		m.store.Remove(key)
		m.queue.Remove(key)
		m.stats.Unloaded++

		if c.Ready() && m.persister != nil {
			pixels, background := c.Buffers()
			snap := ChunkSnapshot{Key: key, Pixels: pixels, Background: background}
			if err := m.persister.SaveChunk(ctx, snap); err != nil {
				m.stats.PersistFailures++
				m.logger.Warn("Не удалось сохранить чанк %s: %v", key, err)
			}
		}
		logging.LogChunkTransition(m.logger, key.X, key.Y, c.State().String(), "Unloaded")
		m.events.publish(ChunkEvent{Type: EventChunkUnloaded, Key: key, State: c.State(), Tick: m.tick})
	}
}

func (m *Manager) enqueueZones() {
	target := m.fullTarget()
	for _, z := range m.zones {
		for _, key := range KeysInRect(z.Load) {
			m.request(key, target)
		}
	}
}

type pending struct {
	key    ChunkKey
	target int
}

// processQueue обрабатывает не более LoadBatch ключей, продвигая каждый на одну стадию
func (m *Manager) processQueue(ctx context.Context) error {
	n := min(m.cfg.LoadBatch, m.queue.Len())
	retry := make([]pending, 0, n)
	defer func() {
		for _, p := range retry {
			m.queue.Push(p.key, p.target)
		}
	}()

	for i := 0; i < n; i++ {
		key, target, ok := m.queue.Pop()
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			retry = append(retry, pending{key, target})
			return err
		}
		if !m.advance(ctx, key, target) {
			retry = append(retry, pending{key, target})
		}
	}
	return nil
}

// advance продвигает чанк на одну стадию. Возвращает true, когда цель достигнута.
func (m *Manager) advance(ctx context.Context, key ChunkKey, target int) bool {
	c, ok := m.store.Get(key)
	if !ok {
		c = NewChunk(key)
		m.store.Insert(c)
		if m.restore(ctx, c) {
			delete(m.pinned, key)
			return true
		}
	}
	if c.Ready() {
		delete(m.pinned, key)
		return true
	}

	stage := c.State().CompletedStages()
	if stage >= target {
		return true
	}
	if !m.neighborsReached(key, stage) {
		return false
	}

	if err := m.runStage(c, uint8(stage)); err != nil {
		c.genFailures++
		m.stats.GenerationFailures++
		if c.genFailures >= m.cfg.GenerationRetryWarn {
			m.logger.Error("Генерация чанка %s падает %d раз подряд: %v", key, c.genFailures, err)
		} else {
			m.logger.Warn("Ошибка генерации чанка %s: %v", key, err)
		}
		m.events.publish(ChunkEvent{Type: EventGenerationFailed, Key: key, State: c.State(), Tick: m.tick, Err: err})
		return false
	}
	c.genFailures = 0

	next := stage + 1
	if next > int(m.maxStage) {
		from := c.State().String()
		c.SetState(Cached)
		c.RefreshColors()
		c.dirty = Rect{}
		m.stats.Generated++
		delete(m.pinned, key)
		logging.LogChunkTransition(m.logger, key.X, key.Y, from, "Cached")
		m.events.publish(ChunkEvent{Type: EventChunkGenerated, Key: key, State: Cached, Tick: m.tick})
		return true
	}
	c.SetState(Generating(uint8(next)))
	return next >= target
}

// neighborsReached проверяет, что все соседи прошли не меньше stage стадий,
// и запрашивает отстающих до нужной стадии
func (m *Manager) neighborsReached(key ChunkKey, stage int) bool {
	if stage == 0 {
		return true
	}
	ready := true
	for _, off := range neighborOffsets {
		nk := key.Offset(off[0], off[1])
		if nc, ok := m.store.Get(nk); ok && nc.State().CompletedStages() >= stage {
			continue
		}
		ready = false
		m.request(nk, stage)
	}
	return ready
}

func (m *Manager) runStage(c *Chunk, stage uint8) error {
	var err error
	if stage == 0 {
		c.SetState(Generating(0))
		pixels, background := c.Buffers()
		clear(pixels)
		clear(background)
		err = m.generator.Generate(c.Key, m.cfg.Seed, pixels, background, m.registry)
	} else {
		pop := m.populators[stage-1]
		m.store.WithChunkAndNeighbors(c.Key, func(center *Chunk, n *Neighbors) {
			err = pop.Populate(Region{Center: center, N: n, Generation: true}, m.cfg.Seed, m.registry)
		})
	}
	if err != nil {
		return fmt.Errorf("чанк %s, стадия %d: %w: %w", c.Key, stage, ErrGenerationFailed, err)
	}
	return nil
}

func (m *Manager) restore(ctx context.Context, c *Chunk) bool {
	if m.persister == nil {
		return false
	}
	snap, ok, err := m.persister.LoadChunk(ctx, c.Key)
	if err != nil {
		m.stats.PersistFailures++
		m.logger.Warn("Не удалось загрузить чанк %s, будет сгенерирован заново: %v", c.Key, err)
		return false
	}
	if !ok {
		return false
	}
	if len(snap.Pixels) != ChunkArea {
		m.logger.Warn("Чанк %s в хранилище повреждён: %d пикселей", c.Key, len(snap.Pixels))
		return false
	}

	c.SetState(Cached)
	pixels, background := c.Buffers()
	copy(pixels, snap.Pixels)
	if len(snap.Background) == ChunkArea {
		copy(background, snap.Background)
	}
	c.RefreshColors()
	m.stats.Restored++
	logging.LogChunkTransition(m.logger, c.Key.X, c.Key.Y, "NotGenerated", "Cached")
	m.events.publish(ChunkEvent{Type: EventChunkRestored, Key: c.Key, State: Cached, Tick: m.tick})
	return true
}

func (m *Manager) updateActivation() {
	active := m.zoneRects(func(z Zones) Rect { return z.Active }, 0)

	for _, key := range m.store.SortedKeys() {
		c, _ := m.store.Get(key)
		if !c.Ready() {
			continue
		}
		inside := anyIntersects(active, key.Bounds())
		switch {
		case inside && c.State().Kind == StateCached:
			c.SetState(Active)
			c.MarkAllDirty()
			m.events.publish(ChunkEvent{Type: EventChunkActivated, Key: key, State: Active, Tick: m.tick})
		case !inside && c.State().Kind == StateActive:
			c.SetState(Cached)
			m.events.publish(ChunkEvent{Type: EventChunkDeactivated, Key: key, State: Cached, Tick: m.tick})
		}
	}
}

// ActiveKeys возвращает ключи активных чанков в порядке SortedKeys
func (m *Manager) ActiveKeys() []ChunkKey {
	keys := m.store.SortedKeys()
	out := keys[:0]
	for _, k := range keys {
		if c, _ := m.store.Get(k); c.State().Kind == StateActive {
			out = append(out, k)
		}
	}
	return out
}

// Stats возвращает счётчики и распределение чанков по состояниям
func (m *Manager) Stats() ManagerStats {
	s := m.stats
	s.Queued = m.queue.Len()
	for _, c := range m.store.chunks {
		switch c.State().Kind {
		case StateNotGenerated:
			s.NotGenerated++
		case StateGenerating:
			s.Generating++
		case StateCached:
			s.Cached++
		case StateActive:
			s.Active++
		}
	}
	return s
}
