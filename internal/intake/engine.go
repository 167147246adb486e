package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gaoconfig "github.com/JaimeStill/go-agents-orchestration/pkg/config"
	"github.com/JaimeStill/go-agents-orchestration/pkg/state"
	"github.com/google/uuid"

	"github.com/danishmustafa86/aidlink/internal/cases"
	"github.com/danishmustafa86/aidlink/internal/gateway"
	"github.com/danishmustafa86/aidlink/internal/schemas"
	"github.com/danishmustafa86/aidlink/internal/sessions"
)

// System defines the public contract for intake operations.
type System interface {
	Handler() *Handler

	// SubmitTurn processes one citizen turn in receipt order for its session.
	SubmitTurn(ctx context.Context, cmd TurnCommand) (*TurnResult, error)

	// AbandonStale archives collecting sessions idle past the configured
	// timeout. Returns the number abandoned.
	AbandonStale(ctx context.Context) (int, error)
}

// Config bounds the triage dialogue.
type Config struct {
	// ConfidenceThreshold routes low-confidence classifications to the
	// one-time category menu re-prompt.
	ConfidenceThreshold float64
	// MaxIdleTurns ends the session as abandoned after this many consecutive
	// turns with no extractable information.
	MaxIdleTurns int
	// IdleTimeout archives collecting sessions with no activity for this long.
	IdleTimeout time.Duration
	// StaleBatchSize caps how many sessions one janitor pass abandons.
	StaleBatchSize int
}

type engine struct {
	store   sessions.Store
	cases   cases.System
	gateway gateway.System
	cfg     Config
	logger  *slog.Logger
}

// NewEngine creates the intake engine over the given collaborators.
func NewEngine(
	store sessions.Store,
	caseSys cases.System,
	gw gateway.System,
	cfg Config,
	logger *slog.Logger,
) System {
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = 0.6
	}
	if cfg.MaxIdleTurns <= 0 {
		cfg.MaxIdleTurns = 3
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 30 * time.Minute
	}
	if cfg.StaleBatchSize <= 0 {
		cfg.StaleBatchSize = 100
	}
	return &engine{
		store:   store,
		cases:   caseSys,
		gateway: gw,
		cfg:     cfg,
		logger:  logger.With("system", "intake"),
	}
}

func (e *engine) Handler() *Handler {
	return NewHandler(e, e.logger)
}

func (e *engine) SubmitTurn(ctx context.Context, cmd TurnCommand) (*TurnResult, error) {
	if cmd.Text == "" || cmd.CitizenRef == "" {
		return nil, fmt.Errorf("%w: citizen_ref and text required", ErrInvalidTurn)
	}

	session, err := e.loadSession(ctx, cmd)
	if err != nil {
		return nil, err
	}

	if exitRequested(cmd.Text) {
		return e.abandon(ctx, session, cmd.Text)
	}

	session.AppendTurn(gateway.RoleCitizen, cmd.Text)

	graph, err := e.buildGraph()
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}

	initial := state.New(nil)
	initial = initial.Set(KeySession, session)
	initial = initial.Set(KeyText, cmd.Text)
	initial = initial.Set(KeyHint, cmd.CategoryHint)

	final, err := graph.Execute(ctx, initial)
	if err != nil {
		return nil, fmt.Errorf("execute graph: %w", err)
	}

	return extractTurnResult(final)
}

// loadSession finds the turn's session, or creates one when no id is given.
// A citizen ref mismatch reads as not found rather than leaking the session.
func (e *engine) loadSession(ctx context.Context, cmd TurnCommand) (*sessions.Session, error) {
	if cmd.SessionID == nil {
		session := sessions.NewSession(cmd.CitizenRef)
		if err := e.store.Insert(ctx, session); err != nil {
			return nil, err
		}
		return session, nil
	}

	session, err := e.store.Find(ctx, *cmd.SessionID)
	if err != nil {
		return nil, err
	}
	if session.CitizenRef != cmd.CitizenRef {
		return nil, sessions.ErrNotFound
	}
	if session.Archived() {
		return nil, sessions.ErrArchived
	}
	return session, nil
}

func (e *engine) abandon(ctx context.Context, session *sessions.Session, text string) (*TurnResult, error) {
	session.AppendTurn(gateway.RoleCitizen, text)
	session.AppendTurn(gateway.RoleAssistant, abandonedReply)
	session.Status = sessions.StatusAbandoned

	if err := e.store.Update(ctx, session); err != nil && !errors.Is(err, sessions.ErrArchived) {
		return nil, err
	}

	e.logger.Info("session abandoned", "id", session.ID, "reason", "explicit exit")
	return &TurnResult{
		SessionID:  session.ID,
		Status:     session.Status,
		Category:   session.Category,
		NextPrompt: abandonedReply,
	}, nil
}

func (e *engine) AbandonStale(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-e.cfg.IdleTimeout)
	stale, err := e.store.ListIdleBefore(ctx, cutoff, e.cfg.StaleBatchSize)
	if err != nil {
		return 0, err
	}

	abandoned := 0
	for i := range stale {
		session := &stale[i]
		session.Status = sessions.StatusAbandoned
		if err := e.store.Update(ctx, session); err != nil {
			// A racing turn or archive wins; skip.
			if errors.Is(err, sessions.ErrArchived) || errors.Is(err, sessions.ErrNotFound) {
				continue
			}
			return abandoned, err
		}
		abandoned++
		e.logger.Info("session abandoned", "id", session.ID, "reason", "inactivity")
	}
	return abandoned, nil
}

func (e *engine) buildGraph() (state.StateGraph, error) {
	cfg := gaoconfig.DefaultGraphConfig("aidlink-intake")
	cfg.Observer = "noop"

	graph, err := state.NewGraph(cfg)
	if err != nil {
		return nil, err
	}

	if err := graph.AddNode("classify", ClassifyNode(e)); err != nil {
		return nil, err
	}
	if err := graph.AddNode("collect", CollectNode(e)); err != nil {
		return nil, err
	}
	if err := graph.AddNode("finalize", FinalizeNode(e)); err != nil {
		return nil, err
	}

	// classify → collect (classification landed, no reply issued yet)
	if err := graph.AddEdge("classify", "collect", readyToCollect); err != nil {
		return nil, err
	}

	// classify → finalize (menu re-prompt or gateway fallback ended the turn)
	if err := graph.AddEdge("classify", "finalize", state.Not(readyToCollect)); err != nil {
		return nil, err
	}

	if err := graph.AddEdge("collect", "finalize", nil); err != nil {
		return nil, err
	}

	if err := graph.SetEntryPoint("classify"); err != nil {
		return nil, err
	}
	if err := graph.SetExitPoint("finalize"); err != nil {
		return nil, err
	}

	return graph, nil
}

// readyToCollect gates the collect node: the session must be classified and
// the classify node must not have already answered the turn.
func readyToCollect(s state.State) bool {
	session, err := extractSession(s)
	if err != nil {
		return false
	}
	if _, ok := s.Get(KeyReply); ok {
		return false
	}
	return session.Classified()
}

func extractSession(s state.State) (*sessions.Session, error) {
	val, ok := s.Get(KeySession)
	if !ok {
		return nil, fmt.Errorf("missing %s in state", KeySession)
	}

	session, ok := val.(*sessions.Session)
	if !ok {
		return nil, fmt.Errorf("%s is not *sessions.Session", KeySession)
	}
	return session, nil
}

func extractTurnResult(s state.State) (*TurnResult, error) {
	session, err := extractSession(s)
	if err != nil {
		return nil, err
	}

	result := &TurnResult{
		SessionID: session.ID,
		Status:    session.Status,
		Category:  session.Category,
	}

	if val, ok := s.Get(KeyReply); ok {
		if reply, ok := val.(string); ok {
			result.NextPrompt = reply
		}
	}
	if val, ok := s.Get(KeyCaseID); ok {
		if caseID, ok := val.(uuid.UUID); ok {
			result.CaseID = &caseID
		}
	}

	return result, nil
}

// completeWithReask sends one contract-bound completion and re-asks exactly
// once when the reply cannot be parsed against the contract.
func completeWithReask[T any](
	ctx context.Context,
	gw gateway.System,
	instructions string,
	history []gateway.Turn,
) (T, error) {
	parsed, err := gateway.Complete[T](ctx, gw, instructions, history)
	if errors.Is(err, gateway.ErrMalformedResponse) {
		reask := instructions + "\n\nYour previous reply was not valid JSON for the contract. Respond with JSON only."
		return gateway.Complete[T](ctx, gw, reask, history)
	}
	return parsed, err
}

// hintCategory resolves an explicit category hint, ignoring invalid values.
func hintCategory(s state.State) (schemas.Category, bool) {
	val, ok := s.Get(KeyHint)
	if !ok {
		return schemas.CategoryUnclassified, false
	}
	hint, ok := val.(string)
	if !ok || hint == "" {
		return schemas.CategoryUnclassified, false
	}

	c, err := schemas.ParseCategory(hint)
	if err != nil {
		return schemas.CategoryUnclassified, false
	}
	return c, true
}
