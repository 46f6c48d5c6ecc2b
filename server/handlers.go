package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/meikuraledutech/process"
	"github.com/meikuraledutech/process/branch"
	"github.com/meikuraledutech/process/codec"
	"github.com/meikuraledutech/process/editor"
	"github.com/meikuraledutech/process/shapes"
)

var (
	errBadRequest = errors.New("invalid body")
	errConflict   = errors.New("edit rejected")
)

type server struct {
	store    process.Store
	sessions *editor.Registry
	labels   shapes.Localizer
	codec    *codec.Serializer
	logger   *slog.Logger
	validate *validator.Validate
}

func newServer(store process.Store, labels shapes.Localizer, serializer *codec.Serializer, logger *slog.Logger) *server {
	return &server{
		store:    store,
		sessions: editor.NewRegistry(),
		labels:   labels,
		codec:    serializer,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// ── Request and response bodies ──────────────────────────────────────

type createProcessRequest struct {
	Name      string `json:"name" validate:"required,max=200"`
	ProjectID int64  `json:"projectId" validate:"gte=0"`
}

type addShapeRequest struct {
	Kind string  `json:"kind" validate:"required,oneof=Start UserTask End SystemTask PreconditionSystemTask UserDecision SystemDecision MergeNode"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type insertDecisionRequest struct {
	Kind          string `json:"kind" validate:"required,oneof=UserDecision SystemDecision"`
	SourceID      int64  `json:"sourceId" validate:"required"`
	DestinationID int64  `json:"destinationId" validate:"required"`
}

// branchRequest edits the branch currently at OrderIndex, or adds a branch
// when OrderIndex is nil.
type branchRequest struct {
	OrderIndex    *float64 `json:"orderIndex"`
	NewOrderIndex *float64 `json:"newOrderIndex" validate:"omitempty,gte=0"`
	Label         *string  `json:"label" validate:"omitempty,max=100"`
	MergeNodeID   int64    `json:"mergeNodeId"`
	Deleted       bool     `json:"deleted"`
}

type updateBranchesRequest struct {
	Branches []branchRequest `json:"branches" validate:"required,min=1,dive"`
}

type setPersonaRequest struct {
	ShapeID   int64  `json:"shapeId" validate:"required"`
	PersonaID int64  `json:"personaId" validate:"required"`
	Name      string `json:"name" validate:"required,max=100"`
}

type sessionView struct {
	ID      string           `json:"id"`
	Dirty   bool             `json:"dirty"`
	Process *process.Process `json:"process"`
}

type branchView struct {
	OrderIndex     float64 `json:"orderIndex"`
	Label          string  `json:"label"`
	FirstNodeID    int64   `json:"firstNodeId"`
	MergeNodeID    int64   `json:"mergeNodeId"`
	MergeNodeLabel string  `json:"mergeNodeLabel,omitempty"`
	MergeNodeValid bool    `json:"mergeNodeValid"`
}

// ── Routes ───────────────────────────────────────────────────────────

func (s *server) routes() *fiber.App {
	app := fiber.New()

	// ── Schema ────────────────────────────────────────────────────────
	app.Post("/schema", func(c fiber.Ctx) error {
		if err := s.store.CreateSchema(c.Context()); err != nil {
			return s.fail(c, err)
		}
		return c.JSON(fiber.Map{"message": "schema created"})
	})

	app.Delete("/schema", func(c fiber.Ctx) error {
		if err := s.store.DropSchema(c.Context()); err != nil {
			return s.fail(c, err)
		}
		return c.JSON(fiber.Map{"message": "schema dropped"})
	})

	// ── Processes ─────────────────────────────────────────────────────
	app.Post("/processes", func(c fiber.Ctx) error {
		var req createProcessRequest
		if err := s.bind(c, &req); err != nil {
			return s.fail(c, err)
		}
		p := editor.NewProcess(shapes.NewFactory(s.labels), req.ProjectID, req.Name)
		saved, err := s.store.SaveProcess(c.Context(), p)
		if err != nil {
			return s.fail(c, err)
		}
		s.logger.Info("Process created.", "process", saved.ID, "project", saved.ProjectID)
		return c.Status(fiber.StatusCreated).JSON(saved)
	})

	app.Get("/processes/:id", func(c fiber.Ctx) error {
		p, err := s.store.GetProcess(c.Context(), c.Params("id"))
		if err != nil {
			return s.fail(c, err)
		}
		return c.JSON(p)
	})

	app.Get("/processes/:id/shapes", func(c fiber.Ctx) error {
		list, err := s.store.ListShapes(c.Context(), c.Params("id"))
		if err != nil {
			return s.fail(c, err)
		}
		return c.JSON(list)
	})

	app.Get("/processes/:id/links", func(c fiber.Ctx) error {
		list, err := s.store.ListLinks(c.Context(), c.Params("id"))
		if err != nil {
			return s.fail(c, err)
		}
		return c.JSON(list)
	})

	app.Delete("/processes/:id", func(c fiber.Ctx) error {
		if err := s.store.DeleteProcess(c.Context(), c.Params("id")); err != nil {
			return s.fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	// ── Sessions ──────────────────────────────────────────────────────
	app.Post("/processes/:id/sessions", func(c fiber.Ctx) error {
		p, err := s.store.GetProcess(c.Context(), c.Params("id"))
		if err != nil {
			return s.fail(c, err)
		}
		sess := editor.NewSession(p, shapes.NewFactory(s.labels),
			editor.WithLogger(s.logger), editor.WithSerializer(s.codec))
		s.sessions.Open(sess)
		s.logger.Info("Session opened.", "session", sess.ID, "process", p.ID)
		return c.Status(fiber.StatusCreated).JSON(viewOf(sess))
	})

	app.Get("/sessions/:sid", func(c fiber.Ctx) error {
		var view sessionView
		err := s.sessions.Do(c.Params("sid"), func(sess *editor.Session) error {
			view = viewOf(sess)
			return nil
		})
		if err != nil {
			return s.fail(c, err)
		}
		return c.JSON(view)
	})

	app.Delete("/sessions/:sid", func(c fiber.Ctx) error {
		if !s.sessions.Close(c.Params("sid")) {
			return s.fail(c, editor.ErrSessionNotFound)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Post("/sessions/:sid/shapes", func(c fiber.Ctx) error {
		var req addShapeRequest
		if err := s.bind(c, &req); err != nil {
			return s.fail(c, err)
		}
		kind, _ := process.ParseShapeKind(req.Kind)
		var shape *process.Shape
		err := s.sessions.Do(c.Params("sid"), func(sess *editor.Session) error {
			var err error
			shape, err = sess.AddShape(kind, req.X, req.Y)
			return err
		})
		if err != nil {
			return s.fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(shape)
	})

	app.Post("/sessions/:sid/decisions", func(c fiber.Ctx) error {
		var req insertDecisionRequest
		if err := s.bind(c, &req); err != nil {
			return s.fail(c, err)
		}
		kind, _ := process.ParseShapeKind(req.Kind)
		var decision *process.Shape
		err := s.sessions.Do(c.Params("sid"), func(sess *editor.Session) error {
			return s.rollbackOnError(sess, func() error {
				var err error
				decision, err = sess.InsertDecision(kind, req.SourceID, req.DestinationID)
				return err
			})
		})
		if err != nil {
			return s.fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(decision)
	})

	app.Get("/sessions/:sid/decisions/:did/branches", func(c fiber.Ctx) error {
		decisionID, err := strconv.ParseInt(c.Params("did"), 10, 64)
		if err != nil {
			return s.fail(c, errBadRequest)
		}
		var views []branchView
		err = s.sessions.Do(c.Params("sid"), func(sess *editor.Session) error {
			views, err = branchViews(sess, decisionID)
			return err
		})
		if err != nil {
			return s.fail(c, err)
		}
		return c.JSON(views)
	})

	app.Put("/sessions/:sid/decisions/:did/branches", func(c fiber.Ctx) error {
		decisionID, err := strconv.ParseInt(c.Params("did"), 10, 64)
		if err != nil {
			return s.fail(c, errBadRequest)
		}
		var req updateBranchesRequest
		if err := s.bind(c, &req); err != nil {
			return s.fail(c, err)
		}
		var views []branchView
		err = s.sessions.Do(c.Params("sid"), func(sess *editor.Session) error {
			if err := s.rollbackOnError(sess, func() error {
				return applyBranches(sess, decisionID, req.Branches)
			}); err != nil {
				return err
			}
			views, err = branchViews(sess, decisionID)
			return err
		})
		if err != nil {
			return s.fail(c, err)
		}
		return c.JSON(views)
	})

	app.Put("/sessions/:sid/personas", func(c fiber.Ctx) error {
		var req setPersonaRequest
		if err := s.bind(c, &req); err != nil {
			return s.fail(c, err)
		}
		err := s.sessions.Do(c.Params("sid"), func(sess *editor.Session) error {
			ref := process.ArtifactReference{
				ID:                 req.PersonaID,
				ProjectID:          sess.Process().ProjectID,
				Name:               req.Name,
				BaseItemTypePredef: process.ItemTypeActor,
			}
			if !sess.SetPersona(req.ShapeID, ref) {
				return fmt.Errorf("%w: shape %d takes no persona", process.ErrShapeNotFound, req.ShapeID)
			}
			return nil
		})
		if err != nil {
			return s.fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Post("/sessions/:sid/save", func(c fiber.Ctx) error {
		var view sessionView
		err := s.sessions.Do(c.Params("sid"), func(sess *editor.Session) error {
			if err := sess.Save(c.Context(), s.store); err != nil {
				return err
			}
			view = viewOf(sess)
			return nil
		})
		if err != nil {
			return s.fail(c, err)
		}
		return c.JSON(view)
	})

	return app
}

// ── Helpers ──────────────────────────────────────────────────────────

func (s *server) bind(c fiber.Ctx, v any) error {
	if err := c.Bind().JSON(v); err != nil {
		return errBadRequest
	}
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// rollbackOnError snapshots the session, runs edit and restores the
// snapshot when edit fails or leaves the process invalid.
func (s *server) rollbackOnError(sess *editor.Session, edit func() error) error {
	snap, err := sess.Snapshot()
	if err != nil {
		return err
	}
	err = edit()
	if err == nil {
		err = process.Validate(sess.Process())
	}
	if err != nil {
		if rerr := sess.Restore(snap); rerr != nil {
			return errors.Join(err, rerr)
		}
		s.logger.Warn("Edit rolled back.", "session", sess.ID, "error", err)
	}
	return err
}

func (s *server) fail(c fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, errBadRequest):
		status = fiber.StatusBadRequest
	case errors.Is(err, editor.ErrSessionNotFound),
		errors.Is(err, editor.ErrLinkNotFound),
		errors.Is(err, process.ErrProcessNotFound),
		errors.Is(err, process.ErrShapeNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, errConflict):
		status = fiber.StatusConflict
	case errors.Is(err, editor.ErrNotADecision),
		errors.Is(err, process.ErrCycleDetected),
		errors.Is(err, process.ErrDanglingLink),
		errors.Is(err, process.ErrDuplicateShape),
		errors.Is(err, process.ErrDuplicateOrderIndex),
		errors.Is(err, process.ErrUnpairedBranch):
		status = fiber.StatusUnprocessableEntity
	}
	if status == fiber.StatusInternalServerError {
		s.logger.Error("Request failed.", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func viewOf(sess *editor.Session) sessionView {
	return sessionView{ID: sess.ID, Dirty: sess.Dirty(), Process: sess.Process()}
}

func branchViews(sess *editor.Session, decisionID int64) ([]branchView, error) {
	decision := sess.Graph().Node(decisionID)
	if decision == nil {
		return nil, fmt.Errorf("%w: %d", process.ErrShapeNotFound, decisionID)
	}
	if !decision.Kind().IsDecision() {
		return nil, fmt.Errorf("%w: %d", editor.ErrNotADecision, decisionID)
	}

	candidates := sess.MergeCandidates(decisionID)
	views := []branchView{}
	for _, cond := range sess.Conditions(decisionID) {
		label, ok := cond.MergeNodeLabel(candidates)
		views = append(views, branchView{
			OrderIndex:     cond.OrderIndex,
			Label:          cond.Label,
			FirstNodeID:    cond.FirstNodeID,
			MergeNodeID:    cond.MergeNodeID,
			MergeNodeLabel: label,
			MergeNodeValid: ok,
		})
	}
	return views, nil
}

// applyBranches turns the requested edits into conditions and commits them.
// Any creation or deletion the graph rejects fails the whole batch.
func applyBranches(sess *editor.Session, decisionID int64, reqs []branchRequest) error {
	if node := sess.Graph().Node(decisionID); node == nil || !node.Kind().IsDecision() {
		return fmt.Errorf("%w: %d", editor.ErrNotADecision, decisionID)
	}
	current := sess.Conditions(decisionID)
	var conds []*branch.Condition
	for _, r := range reqs {
		if r.OrderIndex == nil {
			label := ""
			if r.Label != nil {
				label = *r.Label
			}
			created := branch.NewCreated(decisionID, label, r.MergeNodeID)
			created.IsDeleted = r.Deleted
			conds = append(conds, created)
			continue
		}

		var cond *branch.Condition
		for _, cur := range current {
			if cur.OrderIndex == *r.OrderIndex {
				cond = cur
				break
			}
		}
		if cond == nil {
			return fmt.Errorf("%w: no branch at order index %v", errConflict, *r.OrderIndex)
		}
		if r.Label != nil {
			cond.Label = *r.Label
		}
		if r.MergeNodeID != 0 {
			cond.MergeNodeID = r.MergeNodeID
		}
		if r.NewOrderIndex != nil {
			cond.OrderIndex = *r.NewOrderIndex
		}
		cond.IsDeleted = r.Deleted
		conds = append(conds, cond)
	}

	_, failed := sess.ApplyConditions(conds)
	if len(failed) > 0 {
		return fmt.Errorf("%w: %d branch change(s) rejected, first %s at order index %v",
			errConflict, len(failed), failed[0].Pending(), failed[0].OrderIndex)
	}
	return nil
}
