package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"LinkStrategist/internal/app"
	"LinkStrategist/internal/domain"
)

func newProjectCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Create and inspect projects",
	}
	cmd.AddCommand(newProjectCreateCommand(ctx))
	cmd.AddCommand(newProjectListCommand(ctx))
	return cmd
}

func newProjectCreateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "create NAME",
		Short: "Create an empty project",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(application *app.Application) error {
				project, err := application.Services().Projects.Create(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created project %s (%s)\n", project.Name, project.ID)
				return nil
			})
		},
	}
}

func newProjectListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(application *app.Application) error {
				projects, err := application.Services().Projects.List(cmd.Context())
				if err != nil {
					return err
				}
				return printResult(cmd, asJSON, projects, func() string {
					return renderProjects(projects)
				})
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func renderProjects(projects []domain.Project) string {
	if len(projects) == 0 {
		return "No projects"
	}
	rows := make([]table.Row, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, table.Row{
			p.ID,
			p.Name,
			p.Status,
			fmt.Sprintf("%d/%d", p.CompletedArticles, p.TotalArticles),
			p.CreatedAt.Local().Format(time.DateTime),
		})
	}
	return grid(projectColumns, rows)
}

func newArticlesCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "articles PROJECT_ID",
		Short: "List a project's articles in batch order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(application *app.Application) error {
				articles, err := application.Services().Projects.Articles(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printResult(cmd, asJSON, articles, func() string {
					return renderArticles(articles)
				})
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func renderArticles(articles []domain.Article) string {
	rows := make([]table.Row, 0, len(articles))
	for _, a := range articles {
		opportunities := "-"
		if a.Analysis != nil {
			opportunities = strconv.Itoa(len(a.Analysis.Opportunities))
		}
		rows = append(rows, table.Row{a.OrderIndex, a.ID, a.FromURL, a.MainKeyword, a.Status, opportunities})
	}
	return grid(articleColumns, rows)
}
