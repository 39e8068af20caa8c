package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/export"
	"github.com/xavierca1/leadflow/internal/tui"
	"github.com/xavierca1/leadflow/internal/usecase"
)

var (
	boardStatus int
	boardLost   bool
	boardWon    bool

	remarksXLSX    string
	remarksPreview int
)

var boardCmd = &cobra.Command{
	Use:   "board [lead-id]",
	Short: "Open the interactive status bar of a lead",
	Args:  cobra.ExactArgs(1),
	RunE:  runBoard,
}

var stagesCmd = &cobra.Command{
	Use:   "stages",
	Short: "List the lead status stages in display order",
	Args:  cobra.NoArgs,
	RunE:  runStages,
}

var remarksCmd = &cobra.Command{
	Use:   "remarks [lead-id]",
	Short: "Print or export the remark timeline of a lead",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemarks,
}

func runBoard(cmd *cobra.Command, args []string) error {
	leadID, err := leadArg(args)
	if err != nil {
		return err
	}
	if actorID <= 0 {
		return fmt.Errorf("--actor (or LEADFLOW_ACTOR_ID) is required")
	}

	ctrl := usecase.NewProgressionController(usecase.ProgressionDeps{
		Gateway: client,
		Journal: usecase.NewMemoryJournal(),
		Logger:  log,
	}, entity.LeadSnapshot{LeadID: leadID, StatusID: boardStatus, IsLost: boardLost, IsWon: boardWon}, actorID)

	ctx, cancel := commandContext()
	defer cancel()
	if err := ctrl.Load(ctx); err != nil {
		return err
	}

	_, err = tea.NewProgram(tui.NewBoard(ctrl, timeout)).Run()
	return err
}

func runStages(cmd *cobra.Command, args []string) error {
	reg := usecase.NewStageRegistry(client, log)

	ctx, cancel := commandContext()
	defer cancel()
	if err := reg.Load(ctx); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tNAME\tORDER\tACTIVE")
	for i, s := range reg.Stages() {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%d\t%t\n", i, s.ID, s.Name, s.Order, s.Active)
	}
	return tw.Flush()
}

func runRemarks(cmd *cobra.Command, args []string) error {
	leadID, err := leadArg(args)
	if err != nil {
		return err
	}

	ledger := usecase.NewRemarkLedger(client, leadID)
	ctx, cancel := commandContext()
	defer cancel()
	if err := ledger.Refresh(ctx); err != nil {
		return err
	}

	if remarksXLSX != "" {
		f, err := os.Create(remarksXLSX)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := export.WriteRemarks(f, leadID, ledger.Entries()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d remarks written to %s\n", ledger.Len(), remarksXLSX)
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tBY\tCREATED\tREMARK")
	for _, e := range ledger.Timeline(remarksPreview) {
		r := e.Remark
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.ID, r.StatusName, r.CreatedBy, r.CreatedAt.Local().Format("2006-01-02 15:04"), e.Preview)
	}
	return tw.Flush()
}
