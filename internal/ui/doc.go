// Package ui implements an interactive study dashboard using bubbletea's Elm architecture.
//
// The dashboard renders one tab per domain of a [reconciler.Workspace]:
//  1. [GroupsView] : Browse note groups, open one to reach [NotesView]
//  2. [BookmarksView] : Saved links, newest first
//  3. [RemindersView] : Reminders in date order
//  4. [StatsView] : Study totals, streaks and the daily breakdown
//
// The [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving results of workspace calls via the
// Msg union type. Every call runs inside a [tea.Cmd], so the reconcilers do their I/O off the render loop and the model
// re-reads their snapshots when the result arrives.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, a/d, y/n, r, q) with contextual help displayed via
// charmbracelet/bubbles/help.
package ui
