// Package rules manages learned category rules
package rules

import (
	"fmt"
	"strconv"

	"fjacquet/expense-import/cmd/root"
	"fjacquet/expense-import/internal/container"
	"fjacquet/expense-import/internal/models"
	"fjacquet/expense-import/internal/report"

	"github.com/spf13/cobra"
)

// Cmd represents the rules command
var Cmd = &cobra.Command{
	Use:   "rules",
	Short: "List and manage learned category rules",
	Long: `List and manage the category rules learned from import overrides and
manual recategorizations.

Example:
  expense-import rules list
  expense-import rules disable 3
  expense-import rules set 3 Groceries`,
	Run: func(cmd *cobra.Command, args []string) { _ = cmd.Help() },
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules, most used first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := appContainer()
		if err != nil {
			return err
		}
		rules, err := c.GetStorage().ListRules(root.Context(cmd), root.Owner())
		if err != nil {
			return err
		}
		if len(rules) == 0 {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), report.SubtleStyle.Render("No learned rules yet."))
			return nil
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), RenderRules(rules))
		return nil
	},
}

var enableCmd = &cobra.Command{
	Use:   "enable <id>",
	Short: "Enable a rule",
	Args:  cobra.ExactArgs(1),
	RunE:  setEnabled(true),
}

var disableCmd = &cobra.Command{
	Use:   "disable <id>",
	Short: "Disable a rule without deleting it",
	Args:  cobra.ExactArgs(1),
	RunE:  setEnabled(false),
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := ParseRuleID(args[0])
		if err != nil {
			return err
		}
		c, err := appContainer()
		if err != nil {
			return err
		}
		if err := c.GetStorage().DeleteRule(root.Context(cmd), root.Owner(), id); err != nil {
			return fmt.Errorf("failed to delete rule %d: %w", id, err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), report.SuccessStyle.Render(fmt.Sprintf("Deleted rule %d", id)))
		return nil
	},
}

var setCmd = &cobra.Command{
	Use:   "set <id> <category>",
	Short: "Change the category a rule assigns",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := ParseRuleID(args[0])
		if err != nil {
			return err
		}
		c, err := appContainer()
		if err != nil {
			return err
		}
		ctx := root.Context(cmd)
		categories, err := c.GetStorage().ListCategories(ctx, root.Owner())
		if err != nil {
			return err
		}
		name := models.NewCategorySet(categories).Pick(args[1])
		if name == "" {
			return fmt.Errorf("unknown category %q", args[1])
		}
		if err := c.GetStorage().UpdateRuleCategory(ctx, root.Owner(), id, name); err != nil {
			return fmt.Errorf("failed to update rule %d: %w", id, err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), report.SuccessStyle.Render(fmt.Sprintf("Rule %d now assigns %s", id, name)))
		return nil
	},
}

func init() {
	Cmd.AddCommand(listCmd, enableCmd, disableCmd, deleteCmd, setCmd)
}

func setEnabled(enabled bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id, err := ParseRuleID(args[0])
		if err != nil {
			return err
		}
		c, err := appContainer()
		if err != nil {
			return err
		}
		if err := c.GetStorage().SetRuleEnabled(root.Context(cmd), root.Owner(), id, enabled); err != nil {
			return fmt.Errorf("failed to update rule %d: %w", id, err)
		}
		state := "Disabled"
		if enabled {
			state = "Enabled"
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), report.SuccessStyle.Render(fmt.Sprintf("%s rule %d", state, id)))
		return nil
	}
}

func appContainer() (*container.Container, error) {
	c := root.GetContainer()
	if c == nil {
		return nil, fmt.Errorf("container not initialized")
	}
	return c, nil
}

// ParseRuleID parses a rule id argument.
func ParseRuleID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid rule id %q", arg)
	}
	return id, nil
}

// RenderRules renders rules as a table.
func RenderRules(rules []models.Rule) string {
	rows := make([][]string, 0, len(rules))
	for _, r := range rules {
		lastUsed := ""
		if r.LastUsedAt != nil {
			lastUsed = r.LastUsedAt.Format(models.DateLayout)
		}
		enabled := report.SuccessStyle.Render("yes")
		if !r.Enabled {
			enabled = report.SubtleStyle.Render("no")
		}
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			string(r.KeyType),
			r.Pattern,
			r.Category,
			strconv.Itoa(r.Priority),
			strconv.Itoa(r.Hits),
			lastUsed,
			string(r.Source),
			enabled,
		})
	}
	return report.Table([]report.Column{
		{Title: "ID", Width: 5, Right: true},
		{Title: "Type", Width: 12},
		{Title: "Pattern", Width: 28},
		{Title: "Category", Width: 26},
		{Title: "Prio", Width: 5, Right: true},
		{Title: "Hits", Width: 5, Right: true},
		{Title: "Last used", Width: 11},
		{Title: "Source", Width: 16},
		{Title: "On", Width: 4},
	}, rows)
}
