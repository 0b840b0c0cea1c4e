package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hylla/gantry/internal/app"
	"github.com/hylla/gantry/internal/domain"
)

func newProjectCommand(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "List, rename, archive, restore, or delete projects",
		Long: `Projects are matched by id, slug, or case-insensitive name.
Archived projects are hidden from the chart until restored.`,
	}

	var includeArchived bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withSession(cmd.Context(), "project list", func(ctx context.Context, s *session) error {
				projects, err := s.svc.ListProjects(ctx, includeArchived)
				if err != nil {
					return fmt.Errorf("list projects: %w", err)
				}
				tw := tabwriter.NewWriter(opts.stdout, 0, 4, 2, ' ', 0)
				for _, p := range projects {
					state := "active"
					if p.ArchivedAt != nil {
						state = "archived"
					}
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Slug, p.Name, state)
				}
				return tw.Flush()
			})
		},
	}
	list.Flags().BoolVar(&includeArchived, "all", false, "include archived projects")

	var (
		newName     string
		description string
	)
	rename := &cobra.Command{
		Use:   "rename <project>",
		Short: "Rename a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd.Context(), "project rename", func(ctx context.Context, s *session) error {
				project, err := resolveProject(ctx, s.svc, args[0])
				if err != nil {
					return err
				}
				desc := project.Description
				if cmd.Flags().Changed("description") {
					desc = description
				}
				project, err = s.svc.RenameProject(ctx, project.ID, firstNonEmpty(newName, project.Name), desc)
				if err != nil {
					return fmt.Errorf("rename project: %w", err)
				}
				return printProject(opts, "renamed", project)
			})
		},
	}
	rename.Flags().StringVar(&newName, "name", "", "new project name")
	rename.Flags().StringVar(&description, "description", "", "new project description")

	archive := projectStateCommand(opts, "archive", "Hide a project from the chart", "archived", (*app.Service).ArchiveProject)
	restore := projectStateCommand(opts, "restore", "Bring an archived project back", "restored", (*app.Service).RestoreProject)

	remove := &cobra.Command{
		Use:   "delete <project>",
		Short: "Delete a project and all of its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd.Context(), "project delete", func(ctx context.Context, s *session) error {
				project, err := resolveProject(ctx, s.svc, args[0])
				if err != nil {
					return err
				}
				if err := s.svc.DeleteProject(ctx, project.ID); err != nil {
					return fmt.Errorf("delete project: %w", err)
				}
				return printProject(opts, "deleted", project)
			})
		},
	}

	cmd.AddCommand(list, rename, archive, restore, remove)
	return cmd
}

func projectStateCommand(opts *cliOptions, use, short, verb string, apply func(*app.Service, context.Context, string) (domain.Project, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <project>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd.Context(), "project "+use, func(ctx context.Context, s *session) error {
				project, err := resolveProject(ctx, s.svc, args[0])
				if err != nil {
					return err
				}
				project, err = apply(s.svc, ctx, project.ID)
				if err != nil {
					return fmt.Errorf("%s project: %w", use, err)
				}
				return printProject(opts, verb, project)
			})
		},
	}
}

func printProject(opts *cliOptions, verb string, p domain.Project) error {
	_, err := fmt.Fprintf(opts.stdout, "%s project %s (%s)\n", verb, p.Slug, p.Name)
	return err
}

func newTaskCommand(opts *cliOptions) *cobra.Command {
	var projectRef string
	cmd := &cobra.Command{
		Use:   "task",
		Short: "List, reschedule, or relink tasks",
		Long: `Tasks are matched by id, or by case-insensitive name within --project.
Dates accept RFC3339, "2006-01-02 15:04", or a bare "2006-01-02".`,
	}
	cmd.PersistentFlags().StringVarP(&projectRef, "project", "p", "", "project id, slug, or name (default first project)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List a project's tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withSession(cmd.Context(), "task list", func(ctx context.Context, s *session) error {
				project, err := resolveProject(ctx, s.svc, projectRef)
				if err != nil {
					return err
				}
				tasks, err := s.svc.ListTasks(ctx, project.ID)
				if err != nil {
					return fmt.Errorf("list tasks: %w", err)
				}
				tw := tabwriter.NewWriter(opts.stdout, 0, 4, 2, ' ', 0)
				for _, task := range tasks {
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", task.ID, task.Name, formatTaskRange(task), strings.Join(task.Dependencies, ","))
				}
				return tw.Flush()
			})
		},
	}

	var startRaw, endRaw string
	reschedule := &cobra.Command{
		Use:     "reschedule <task>",
		Short:   "Move a task to a new date range",
		Example: `  gantry task reschedule Build -p website-relaunch --start 2026-03-10 --end 2026-03-24`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd.Context(), "task reschedule", func(ctx context.Context, s *session) error {
				task, err := resolveTask(ctx, s.svc, projectRef, args[0])
				if err != nil {
					return err
				}
				start, end := task.Start, task.End
				if cmd.Flags().Changed("start") {
					if start, err = app.ParseTime(startRaw); err != nil {
						return fmt.Errorf("--start: %w", err)
					}
				}
				if cmd.Flags().Changed("end") {
					if end, err = app.ParseTime(endRaw); err != nil {
						return fmt.Errorf("--end: %w", err)
					}
				}
				task, err = s.svc.RescheduleTask(ctx, task.ID, start, end)
				if err != nil {
					return fmt.Errorf("reschedule task: %w", err)
				}
				_, err = fmt.Fprintf(opts.stdout, "rescheduled %s: %s\n", task.Name, formatTaskRange(task))
				return err
			})
		},
	}
	reschedule.Flags().StringVar(&startRaw, "start", "", "new start date")
	reschedule.Flags().StringVar(&endRaw, "end", "", "new end date")

	deps := &cobra.Command{
		Use:   "deps <task> [dependency...]",
		Short: "Replace the tasks a task depends on",
		Long:  "deps replaces the dependency list. With no dependencies given it clears the list.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd.Context(), "task deps", func(ctx context.Context, s *session) error {
				task, err := resolveTask(ctx, s.svc, projectRef, args[0])
				if err != nil {
					return err
				}
				ids := make([]string, 0, len(args)-1)
				for _, ref := range args[1:] {
					dep, err := resolveTask(ctx, s.svc, task.ProjectID, ref)
					if err != nil {
						return err
					}
					ids = append(ids, dep.ID)
				}
				task, err = s.svc.SetTaskDependencies(ctx, task.ID, ids)
				if err != nil {
					return fmt.Errorf("set task dependencies: %w", err)
				}
				_, err = fmt.Fprintf(opts.stdout, "%s depends on %d task(s)\n", task.Name, len(task.Dependencies))
				return err
			})
		},
	}

	cmd.AddCommand(list, reschedule, deps)
	return cmd
}

// resolveTask matches ref against a task id first, then by name inside the
// project named by projectRef.
func resolveTask(ctx context.Context, svc *app.Service, projectRef, ref string) (domain.Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return domain.Task{}, errors.New("task reference is required")
	}
	if task, err := svc.GetTask(ctx, ref); err == nil {
		return task, nil
	}
	project, err := resolveProject(ctx, svc, projectRef)
	if err != nil {
		return domain.Task{}, err
	}
	tasks, err := svc.ListTasks(ctx, project.ID)
	if err != nil {
		return domain.Task{}, fmt.Errorf("list tasks: %w", err)
	}
	for _, task := range tasks {
		if strings.EqualFold(task.Name, ref) {
			return task, nil
		}
	}
	return domain.Task{}, fmt.Errorf("task %q not found in project %s", ref, project.Slug)
}

func formatTaskRange(task domain.Task) string {
	if task.End.IsZero() || task.End.Equal(task.Start) {
		return task.Start.UTC().Format(time.DateOnly)
	}
	return task.Start.UTC().Format(time.DateOnly) + ".." + task.End.UTC().Format(time.DateOnly)
}
