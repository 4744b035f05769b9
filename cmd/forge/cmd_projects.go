package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Inspect and manage stored projects",
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all projects",
	RunE:  projectsList,
}

var projectsShowCmd = &cobra.Command{
	Use:   "show [project-id]",
	Short: "Show a project and its files",
	Args:  cobra.ExactArgs(1),
	RunE:  projectsShow,
}

var projectsDeleteCmd = &cobra.Command{
	Use:   "delete [project-id]",
	Short: "Delete a project, its files, and its conversation history",
	Args:  cobra.ExactArgs(1),
	RunE:  projectsDelete,
}

func init() {
	projectsCmd.AddCommand(projectsListCmd)
	projectsCmd.AddCommand(projectsShowCmd)
	projectsCmd.AddCommand(projectsDeleteCmd)
}

func projectsList(cmd *cobra.Command, args []string) error {
	a, err := buildApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	projects, err := a.store.ListProjects()
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		fmt.Println("No projects.")
		return nil
	}
	for _, p := range projects {
		fmt.Printf("%s  %-20s %-8s %s\n", p.ID, p.Name, p.Type, p.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func projectsShow(cmd *cobra.Command, args []string) error {
	a, err := buildApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	project, ok, err := a.store.GetProject(args[0])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("project %s not found", args[0])
	}

	fmt.Printf("%s (%s, %s)\n", project.Name, project.ID, project.Type)
	if project.Description != "" {
		fmt.Printf("  %s\n", project.Description)
	}

	files, err := a.store.ListFiles(project.ID)
	if err != nil {
		return err
	}
	for _, f := range files {
		marker := " "
		if f.Modified {
			marker = "*"
		}
		fmt.Printf("  %s %-30s %s\n", marker, f.Path, f.ID)
	}
	return nil
}

func projectsDelete(cmd *cobra.Command, args []string) error {
	a, err := buildApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	ok, err := a.store.DeleteProject(args[0])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("project %s not found", args[0])
	}

	if err := a.mirror.DeleteProject(args[0]); err != nil {
		logger.Warn("Failed to remove mirrored project tree", zap.Error(err))
	}

	fmt.Printf("Deleted project %s\n", args[0])
	return nil
}
