package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meikuraledutech/process"
	"github.com/meikuraledutech/process/branch"
	"github.com/meikuraledutech/process/config"
	"github.com/meikuraledutech/process/editor"
	"github.com/meikuraledutech/process/postgres"
	"github.com/meikuraledutech/process/shapes"
	"github.com/meikuraledutech/process/sqlite"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger := cfg.NewLogger(os.Stderr)

	// Wire up the configured implementation behind the Store interface.
	var store process.Store
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("connect: %v", err)
		}
		defer pool.Close()
		store = postgres.New(pool)
	default:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			log.Fatalf("connect: %v", err)
		}
		defer db.Close()
		store = sqlite.New(db, cfg.Serializer())
	}

	// 1. Create tables
	if err := store.CreateSchema(ctx); err != nil {
		log.Fatalf("schema: %v", err)
	}
	fmt.Println("schema created")

	// ── New process with the default layout ──────────────────────────
	labels, err := shapes.NewCatalog(cfg.Locale, shapes.English)
	if err != nil {
		log.Fatalf("labels: %v", err)
	}
	factory := shapes.NewFactory(labels)
	sess := editor.NewSession(editor.NewProcess(factory, 1, "Expense approval"), factory,
		editor.WithLogger(logger), editor.WithSerializer(cfg.Serializer()))

	var userTask, systemTask *process.Shape
	for _, s := range sess.Process().Shapes {
		switch s.Kind() {
		case process.ShapeKindUserTask:
			userTask = s
		case process.ShapeKindSystemTask:
			systemTask = s
		}
	}

	// ── Insert a user decision between the task pair's system task and end ─
	end := sess.Graph().Node(systemTask.ID).NextNodes()[0]
	decision, err := sess.InsertDecision(process.ShapeKindUserDecision, systemTask.ID, end.ID())
	if err != nil {
		log.Fatalf("insert decision: %v", err)
	}
	fmt.Printf("decision inserted: %s\n", decision.Name)

	// ── Edit branches: relabel, add, reorder ─────────────────────────
	conds := sess.Conditions(decision.ID)
	conds[0].Label = "Under limit"
	conds[1].Label = "Over limit"
	conds = append(conds, branch.NewCreated(decision.ID, "Needs receipt", 0))
	if _, failed := sess.ApplyConditions(conds); len(failed) > 0 {
		log.Fatalf("apply branches: %d rejected", len(failed))
	}

	conds = sess.Conditions(decision.ID)
	conds[0].OrderIndex, conds[2].OrderIndex = conds[2].OrderIndex, conds[0].OrderIndex
	sess.ApplyConditions(conds)
	printBranches(sess, decision.ID)

	// ── Persona for the first user task, remembered for later ones ───
	sess.SetPersona(userTask.ID, process.ArtifactReference{ID: 42, Name: "Employee", BaseItemTypePredef: process.ItemTypeActor})

	// ── Save ─────────────────────────────────────────────────────────
	if err := sess.Save(ctx, store); err != nil {
		log.Fatalf("save: %v", err)
	}
	fmt.Printf("\nprocess saved: %s\n", sess.Process().ID)

	// ── Retrieve ─────────────────────────────────────────────────────
	result, err := store.GetProcess(ctx, sess.Process().ID)
	if err != nil {
		log.Fatalf("get process: %v", err)
	}
	fmt.Println("\nlinks retrieved:")
	printJSON(result.Links)

	// ── Delete a branch and save again ───────────────────────────────
	conds = sess.Conditions(decision.ID)
	conds[1].IsDeleted = true
	sess.ApplyConditions(conds)
	if err := sess.Save(ctx, store); err != nil {
		log.Fatalf("save: %v", err)
	}
	fmt.Println("\nbranch deleted:")
	printBranches(sess, decision.ID)

	// ── Cleanup ──────────────────────────────────────────────────────
	if err := store.DeleteProcess(ctx, sess.Process().ID); err != nil {
		log.Fatalf("delete process: %v", err)
	}
	fmt.Println("\nprocess deleted")
}

func printBranches(sess *editor.Session, decisionID int64) {
	candidates := sess.MergeCandidates(decisionID)
	for _, c := range sess.Conditions(decisionID) {
		merge, _ := c.MergeNodeLabel(candidates)
		fmt.Printf("  [%v] %-14q first=%d merge=%s\n", c.OrderIndex, c.Label, c.FirstNodeID, merge)
	}
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}
