package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"techco/internal/app"
	"techco/internal/config"
	"techco/internal/db"
	"techco/internal/domain"
	"techco/internal/engine"
	"techco/internal/migrate"
	"techco/internal/repo"
	"techco/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "tc",
	Short: "Techco CLI",
	Long: `Techco is a business simulation: run a software company against the clock.
- Workspace: your .techco directory holding the SQLite database; balance rules live in techco.yml.
- Game: one company with a bank account. Money only moves when projects complete.
- Developers: hired staff with seniority 1-5. Higher seniority finishes projects faster; juniors refuse complexity above 3.
- Salespeople: hired staff with experience 1-5. They generate new projects; higher experience prospects faster and lands bigger deals.
- Projects: work items worth money. pending -> in_progress -> completed (or cancelled). Completion is wall-clock based.
- Generations: a salesperson's prospecting run that turns into a pending project when the window elapses.
- Pause/resume: pausing freezes the company; resuming shifts every in-flight deadline by the time spent away.
- Game over: money below zero with no open projects left. Check with 'tc game check-over'.
- Event log: diary of changes, view with 'tc log tail'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("TECHCO")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	rootCmd.PersistentFlags().String("game", "", "game id (defaults to the only game in the workspace)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
	_ = viper.BindPFlag("game", rootCmd.PersistentFlags().Lookup("game"))
}

func registerCommands() {
	rootCmd.AddCommand(gameCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(devCmd())
	rootCmd.AddCommand(salesCmd())
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(genCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(apikeyCmd())
	rootCmd.AddCommand(serveCmd())
}

func gameCmd() *cobra.Command {
	game := &cobra.Command{Use: "game", Short: "Manage games"}
	game.AddCommand(gameCreateCmd())
	game.AddCommand(gameListCmd())
	game.AddCommand(gameShowCmd())
	game.AddCommand(gamePauseCmd())
	game.AddCommand(gameResumeCmd())
	game.AddCommand(gameCheckOverCmd())
	game.AddCommand(gameDeleteCmd())
	return game
}

func gameCreateCmd() *cobra.Command {
	var name, notes string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create game",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				g, err := e.CreateGame(ctx, engine.CreateGameOptions{
					OwnerID: viper.GetString("actor-id"),
					Name:    name,
					Notes:   notes,
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(g)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "company name")
	cmd.Flags().StringVar(&notes, "notes", "", "notes")
	return cmd
}

func gameListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List games",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListGames(ctx, "")
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Money", "Status", "Created"})
				for _, g := range items {
					tw.AppendRow(table.Row{g.ID, g.Name, fmt.Sprintf("%.2f", g.Money), g.Status, g.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func gameShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a game",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				gameID, err := resolveExistingGame(ctx, e)
				if err != nil {
					return err
				}
				g, err := e.Repo.GetGame(ctx, gameID)
				if err != nil {
					return err
				}
				return printJSONOrTable(g)
			})
		},
	}
	return cmd
}

func gamePauseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pause",
		Short: "Pause the game clock",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				gameID, err := resolveExistingGame(ctx, e)
				if err != nil {
					return err
				}
				g, err := e.Pause(ctx, gameID, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(g)
			})
		},
	}
	return cmd
}

func gameResumeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Resume the game and shift in-flight deadlines",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				gameID, err := resolveExistingGame(ctx, e)
				if err != nil {
					return err
				}
				g, err := e.Resume(ctx, gameID, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(g)
			})
		},
	}
	return cmd
}

func gameCheckOverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check-over",
		Short: "Evaluate the bankruptcy condition",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				gameID, err := resolveExistingGame(ctx, e)
				if err != nil {
					return err
				}
				g, changed, err := e.CheckGameOver(ctx, gameID, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(map[string]any{"game": g, "changed": changed})
			})
		},
	}
	return cmd
}

func gameDeleteCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a game and everything in it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("refusing to delete without --force")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				gameID, err := resolveExistingGame(ctx, e)
				if err != nil {
					return err
				}
				return e.DeleteGame(ctx, gameID)
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "confirm deletion")
	return cmd
}

func statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the company dashboard",
		Long:  "Money, staff headcount, project counts by status, and the monthly burn rate.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				gameID, err := resolveGame(ctx, e)
				if err != nil {
					return err
				}
				st, err := e.Status(ctx, gameID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(st)
				}
				fmt.Printf("Game: %s (%s)\n", st.Game.Name, st.Game.Status)
				fmt.Printf("Money: %.2f\n", st.Game.Money)
				fmt.Printf("Monthly costs: %.2f\n", st.MonthlyCosts)
				fmt.Printf("Staff: %d developers, %d salespeople\n", st.Developers, st.SalesPeople)
				fmt.Println("Projects:")
				for status, c := range st.Projects {
					fmt.Printf("  %s: %d\n", status, c)
				}
				if st.OpenGeneration > 0 {
					fmt.Printf("Prospecting runs in flight: %d\n", st.OpenGeneration)
				}
				return nil
			})
		},
	}
	return cmd
}

func devCmd() *cobra.Command {
	dev := &cobra.Command{
		Use:   "dev",
		Short: "Manage developers",
		Long:  "Developers finish projects. Seniority 1-5 shortens the estimate; seniority 1 refuses complexity above 3.",
	}
	dev.AddCommand(devHireCmd())
	dev.AddCommand(devListCmd())
	return dev
}

func devHireCmd() *cobra.Command {
	var name string
	var seniority int
	var salary float64
	cmd := &cobra.Command{
		Use:   "hire",
		Short: "Hire a developer",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name required")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				gameID, err := resolveGame(ctx, e)
				if err != nil {
					return err
				}
				d, err := e.HireDeveloper(ctx, gameID, engine.HireOptions{
					Name:          name,
					Level:         seniority,
					MonthlySalary: salary,
					ActorID:       viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(d)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "developer name")
	cmd.Flags().IntVar(&seniority, "seniority", 1, "seniority level 1-5")
	cmd.Flags().Float64Var(&salary, "salary", 0, "monthly salary (0 draws from the market band)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func devListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List developers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				gameID, err := resolveGame(ctx, e)
				if err != nil {
					return err
				}
				items, err := e.Repo.ListDevelopers(ctx, gameID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Seniority", "Salary", "Busy", "Done", "Delivered"})
				for _, d := range items {
					tw.AppendRow(table.Row{d.ID, d.Name, d.Seniority, fmt.Sprintf("%.2f", d.MonthlySalary), d.IsBusy, d.ProjectsCompleted, fmt.Sprintf("%.2f", d.TotalValueDelivered)})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func salesCmd() *cobra.Command {
	sales := &cobra.Command{
		Use:   "sales",
		Short: "Manage salespeople",
		Long:  "Salespeople bring in projects. Experience 1-5 shortens the prospecting window and raises deal value.",
	}
	sales.AddCommand(salesHireCmd())
	sales.AddCommand(salesListCmd())
	return sales
}

func salesHireCmd() *cobra.Command {
	var name string
	var experience int
	var salary float64
	cmd := &cobra.Command{
		Use:   "hire",
		Short: "Hire a salesperson",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name required")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				gameID, err := resolveGame(ctx, e)
				if err != nil {
					return err
				}
				s, err := e.HireSalesPerson(ctx, gameID, engine.HireOptions{
					Name:          name,
					Level:         experience,
					MonthlySalary: salary,
					ActorID:       viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "salesperson name")
	cmd.Flags().IntVar(&experience, "experience", 1, "experience level 1-5")
	cmd.Flags().Float64Var(&salary, "salary", 0, "monthly salary (0 draws from the market band)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func salesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List salespeople",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				gameID, err := resolveGame(ctx, e)
				if err != nil {
					return err
				}
				items, err := e.Repo.ListSalesPeople(ctx, gameID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Experience", "Salary", "Busy", "Generated", "Value"})
				for _, s := range items {
					tw.AppendRow(table.Row{s.ID, s.Name, s.Experience, fmt.Sprintf("%.2f", s.MonthlySalary), s.IsBusy, s.ProjectsGenerated, fmt.Sprintf("%.2f", s.TotalValueGenerated)})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func projectCmd() *cobra.Command {
	prj := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
		Long:  "Projects are the money. pending -> in_progress -> completed; cancel is the exit. Completion pays the project's value into the game.",
	}
	prj.AddCommand(projectCreateCmd())
	prj.AddCommand(projectListCmd())
	prj.AddCommand(projectShowCmd())
	prj.AddCommand(projectAssignCmd())
	prj.AddCommand(projectCompleteCmd())
	prj.AddCommand(projectCancelCmd())
	prj.AddCommand(projectUnassignCmd())
	return prj
}

func projectCreateCmd() *cobra.Command {
	var name string
	var complexity int
	var value float64
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name required")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				gameID, err := resolveGame(ctx, e)
				if err != nil {
					return err
				}
				p, err := e.CreateProject(ctx, gameID, engine.CreateProjectOptions{
					Name:       name,
					Complexity: complexity,
					Value:      value,
					ActorID:    viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "project name")
	cmd.Flags().IntVar(&complexity, "complexity", 1, "complexity 1-5")
	cmd.Flags().Float64Var(&value, "value", 0, "value (0 uses the table for the complexity)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func projectListCmd() *cobra.Command {
	var status, developerID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				gameID, err := resolveGame(ctx, e)
				if err != nil {
					return err
				}
				items, err := e.Repo.ListProjects(ctx, repo.ProjectFilters{
					GameID:      gameID,
					Status:      status,
					DeveloperID: developerID,
				})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				now := time.Now().UTC()
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Cx", "Value", "Status", "Developer", "Progress"})
				for _, p := range items {
					dev := ""
					if p.DeveloperID != nil {
						dev = *p.DeveloperID
					}
					ev := engine.Evaluate(p, now, e.Rules.Projects.CompletionToleranceSeconds)
					progress := ""
					if p.Status == domain.ProjectInProgress {
						progress = fmt.Sprintf("%.0f%%", ev.Progress)
						if ev.Ready {
							progress += " (ready)"
						}
					}
					tw.AppendRow(table.Row{p.ID, p.Name, p.Complexity, fmt.Sprintf("%.2f", p.Value), p.Status, dev, progress})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "status filter")
	cmd.Flags().StringVar(&developerID, "developer", "", "developer filter")
	return cmd
}

func projectShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project with live completion state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				gameID, err := resolveGame(ctx, e)
				if err != nil {
					return err
				}
				p, ev, err := e.EvaluateProject(ctx, gameID, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(map[string]any{"project": p, "evaluation": ev})
			})
		},
	}
	return cmd
}

func projectAssignCmd() *cobra.Command {
	var developerID string
	cmd := &cobra.Command{
		Use:   "assign <project-id>",
		Short: "Assign a project to a developer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if developerID == "" {
				return fmt.Errorf("--developer required")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				gameID, err := resolveGame(ctx, e)
				if err != nil {
					return err
				}
				p, err := e.AssignProject(ctx, gameID, args[0], developerID, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&developerID, "developer", "", "developer id")
	_ = cmd.MarkFlagRequired("developer")
	return cmd
}

func projectCompleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complete <project-id>",
		Short: "Complete a project and collect its value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				gameID, err := resolveGame(ctx, e)
				if err != nil {
					return err
				}
				p, err := e.CompleteProject(ctx, gameID, args[0], viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	return cmd
}

func projectCancelCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "cancel <project-id>",
		Short: "Cancel a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				gameID, err := resolveGame(ctx, e)
				if err != nil {
					return err
				}
				p, err := e.CancelProject(ctx, gameID, args[0], reason, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "cancellation reason")
	return cmd
}

func projectUnassignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unassign <project-id>",
		Short: "Return a project to the pending pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				gameID, err := resolveGame(ctx, e)
				if err != nil {
					return err
				}
				p, err := e.UnassignProject(ctx, gameID, args[0], viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	return cmd
}

func genCmd() *cobra.Command {
	gen := &cobra.Command{
		Use:   "gen",
		Short: "Manage project generations",
		Long:  "A generation is a salesperson's prospecting run. When the window elapses, completing it drops a new pending project into the pool.",
	}
	gen.AddCommand(genStartCmd())
	gen.AddCommand(genListCmd())
	gen.AddCommand(genShowCmd())
	gen.AddCommand(genCompleteCmd())
	gen.AddCommand(genCancelCmd())
	return gen
}

func genStartCmd() *cobra.Command {
	var salesPersonID, targetName string
	var targetComplexity int
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Send a salesperson prospecting",
		RunE: func(cmd *cobra.Command, args []string) error {
			if salesPersonID == "" {
				return fmt.Errorf("--sales required")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				gameID, err := resolveGame(ctx, e)
				if err != nil {
					return err
				}
				gen, err := e.StartGeneration(ctx, gameID, salesPersonID, engine.StartGenerationOptions{
					TargetName:       targetName,
					TargetComplexity: targetComplexity,
					ActorID:          viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(gen)
			})
		},
	}
	cmd.Flags().StringVar(&salesPersonID, "sales", "", "salesperson id")
	cmd.Flags().StringVar(&targetName, "name", "", "prospect name (optional)")
	cmd.Flags().IntVar(&targetComplexity, "complexity", 0, "target complexity 1-5 (0 draws randomly)")
	_ = cmd.MarkFlagRequired("sales")
	return cmd
}

func genListCmd() *cobra.Command {
	var status, salesPersonID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List generations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				gameID, err := resolveGame(ctx, e)
				if err != nil {
					return err
				}
				items, err := e.Repo.ListGenerations(ctx, repo.GenerationFilters{
					GameID:        gameID,
					SalesPersonID: salesPersonID,
					Status:        status,
				})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Salesperson", "Target", "Cx", "Value", "Status", "Due"})
				for _, g := range items {
					tw.AppendRow(table.Row{g.ID, g.SalesPersonID, g.TargetName, g.TargetComplexity, fmt.Sprintf("%.2f", g.TargetValue), g.Status, g.EstimatedCompletionAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "status filter")
	cmd.Flags().StringVar(&salesPersonID, "sales", "", "salesperson filter")
	return cmd
}

func genShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <generation-id>",
		Short: "Show a generation with live progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				gameID, err := resolveGame(ctx, e)
				if err != nil {
					return err
				}
				gen, ev, err := e.EvaluateGeneration(ctx, gameID, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(map[string]any{"generation": gen, "evaluation": ev})
			})
		},
	}
	return cmd
}

func genCompleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complete <generation-id>",
		Short: "Materialize the prospect into a pending project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				gameID, err := resolveGame(ctx, e)
				if err != nil {
					return err
				}
				gen, p, err := e.CompleteGeneration(ctx, gameID, args[0], viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(map[string]any{"generation": gen, "project": p})
			})
		},
	}
	return cmd
}

func genCancelCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "cancel <generation-id>",
		Short: "Cancel a generation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				gameID, err := resolveGame(ctx, e)
				if err != nil {
					return err
				}
				gen, err := e.CancelGeneration(ctx, gameID, args[0], reason, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(gen)
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "cancellation reason")
	return cmd
}

func logCmd() *cobra.Command {
	log := &cobra.Command{
		Use:   "log",
		Short: "Event log",
		Long:  "The diary of everything that happened: hires, assignments, completions, pauses, and more.",
	}
	log.AddCommand(logTailCmd())
	return log
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType, entityKind, entityID string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				gameID, err := resolveGame(ctx, e)
				if err != nil {
					return err
				}
				events, err := e.Repo.LatestEventsFrom(ctx, n, 0, gameID, evtType, entityKind, entityID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(events)
				}
				for i := len(events) - 1; i >= 0; i-- {
					evt := events[i]
					fmt.Printf("%s %-24s %s/%s by %s %s\n", evt.TS, evt.Type, evt.EntityKind, evt.EntityID, evt.ActorID, evt.Payload)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind filter")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "entity id filter")
	return cmd
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{Use: "config", Short: "Balance rules"}
	cfg.AddCommand(configShowCmd())
	cfg.AddCommand(configInitCmd())
	return cfg
}

func configShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective balance rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := config.LoadOptional(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			return printJSONOrTable(rules)
		},
	}
	return cmd
}

func configInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default techco.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s exists; use --force to overwrite", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func apikeyCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "apikey", Short: "API keys for the HTTP server"}
	cmd.AddCommand(apikeyCreateCmd())
	return cmd
}

func apikeyCreateCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Mint an API key for the current actor",
		Long:  "Prints the key once; only its hash is stored.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				raw := make([]byte, 24)
				if _, err := rand.Read(raw); err != nil {
					return err
				}
				key := "tk_" + hex.EncodeToString(raw)
				tx, err := r.DB.BeginTx(ctx, nil)
				if err != nil {
					return err
				}
				defer tx.Rollback()
				err = r.InsertAPIKey(ctx, tx, domain.APIKey{
					ID:        uuid.NewString(),
					ActorID:   viper.GetString("actor-id"),
					Name:      name,
					KeyHash:   repo.HashAPIKey(key),
					CreatedAt: time.Now().UTC().Format(time.RFC3339),
				})
				if err != nil {
					return err
				}
				if err := tx.Commit(); err != nil {
					return err
				}
				fmt.Println(key)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "key label")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			if _, err := db.EnsureWorkspace(workspace); err != nil {
				return err
			}
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			rules, err := config.LoadOptional(workspace)
			if err != nil {
				return err
			}
			e := engine.New(conn, rules)
			authCfg := server.AuthConfig{JWTSecret: os.Getenv("TECHCO_JWT_SECRET")}
			if authCfg.JWTSecret == "" {
				return fmt.Errorf("TECHCO_JWT_SECRET is required for bearer auth")
			}
			handler, err := server.New(server.Config{Engine: e, BasePath: basePath, Auth: authCfg})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Techco API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v1", "API base path")
	return cmd
}

// resolveGame bootstraps a game on first use, the way a fresh workspace
// should just work.
func resolveGame(ctx context.Context, e engine.Engine) (string, error) {
	return app.ResolveOrCreateGame(ctx, e, viper.GetString("game"), viper.GetString("actor-id"), "My Company")
}

// resolveExistingGame never creates; game lifecycle commands operate on what
// is already there.
func resolveExistingGame(ctx context.Context, e engine.Engine) (string, error) {
	return app.ResolveGame(ctx, e.Repo, viper.GetString("game"))
}

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	rules, err := config.LoadOptional(workspace)
	if err != nil {
		return err
	}
	e := engine.New(conn, rules)
	return fn(ctx, e)
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, repo.Repo{DB: conn})
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
