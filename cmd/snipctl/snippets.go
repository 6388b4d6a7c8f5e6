package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sakif/snippet-vault/internal/collection"
	"github.com/sakif/snippet-vault/internal/editor"
	"github.com/sakif/snippet-vault/internal/filter"
	"github.com/sakif/snippet-vault/internal/model"
	"github.com/sakif/snippet-vault/internal/nav"
	"github.com/sakif/snippet-vault/internal/runner"
	"github.com/sakif/snippet-vault/internal/state"
	"github.com/sakif/snippet-vault/internal/tags"
)

// addTags feeds each value through acc the way the form's tag input does,
// printing the limit warning when one is dropped.
func addTags(a *app, acc *tags.Accumulator, values []string) {
	for _, v := range values {
		acc.SetPending(v)
		acc.Add()
		if acc.LimitExceeded().Get() {
			warning(a.out, fmt.Sprintf("%s, ignoring %q", acc.LimitExceeded().Message(), v))
			acc.LimitExceeded().Dismiss()
		}
	}
}

func newListCmd(a *app) *cobra.Command {
	var title, language, usecase, open string
	var tagValues []string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your snippets, optionally filtered",
		Long: "List your snippets. Title and usecase match substrings (any case),\n" +
			"language matches exactly, and a snippet with any of the given tags\n" +
			"matches the tag filter.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filters := filter.NewStore(filter.Criteria{})
			filters.Dispatch(filter.Title(title))
			filters.Dispatch(filter.Usecase(usecase))
			if language != "" {
				lang, err := parseLanguage(language)
				if err != nil {
					return err
				}
				filters.Dispatch(filter.Language(lang))
			}

			acc := tags.New(state.RealClock)
			defer acc.Close()
			addTags(a, acc, tagValues)
			filters.Dispatch(filter.Tags(acc.Tags()))

			return a.protected(nav.PathSnippets, func() error {
				view := collection.NewView(a.api, a.session, a.history, filters, a.logger)
				defer view.Close()
				if err := view.Load(commandContext(cmd)); err != nil {
					return err
				}
				renderList(a.out, view.Visible(), view.CountLabel())
				if open == "" {
					return nil
				}
				return a.openFromList(commandContext(cmd), view, open)
			})
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "title contains")
	cmd.Flags().StringVarP(&language, "language", "l", "", "language is")
	cmd.Flags().StringVar(&usecase, "usecase", "", "usecase contains")
	cmd.Flags().StringSliceVar(&tagValues, "tag", nil, "has any of these tags (repeatable, at most 4)")
	cmd.Flags().StringVar(&open, "open", "", "then show this snippet and return to the filtered list")
	return cmd
}

// openFromList shows id as a detail page reached from view, then goes back
// to the list, rebuilt from the criteria view handed over.
func (a *app) openFromList(ctx context.Context, view *collection.View, id string) error {
	view.Open(id)
	criteria, _ := nav.HandOff[filter.Criteria](a.history)

	s, err := a.api.GetSnippet(ctx, a.session.Token(), id)
	if err != nil {
		a.session.HandleUnauthorized(err)
		return err
	}
	renderSnippet(a.out, s)

	a.history.Back()
	back := collection.NewView(a.api, a.session, a.history, filter.NewStore(criteria), a.logger)
	defer back.Close()
	if err := back.Load(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, styles.Muted.Render("back to list: "+back.CountLabel()))
	return nil
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one snippet with its code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.protected(nav.PathSnippets+"/"+args[0], func() error {
				s, err := a.api.GetSnippet(commandContext(cmd), a.session.Token(), args[0])
				if err != nil {
					a.session.HandleUnauthorized(err)
					return err
				}
				renderSnippet(a.out, s)
				return nil
			})
		},
	}
}

// snippetFlags are shared by add and update.
type snippetFlags struct {
	title, language, usecase, code, file string
	tags, removeTags                     []string
}

func (f *snippetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "title")
	cmd.Flags().StringVarP(&f.language, "language", "l", "", "language (see `snipctl languages`)")
	cmd.Flags().StringVar(&f.usecase, "usecase", "", "what the snippet is for")
	cmd.Flags().StringVar(&f.code, "code", "", "source code")
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "read source code from a file, - for stdin")
	cmd.Flags().StringSliceVar(&f.tags, "tag", nil, "tag (repeatable, at most 4)")
	cmd.MarkFlagsMutuallyExclusive("code", "file")
}

// apply copies the flags that were set onto the editor.
func (f *snippetFlags) apply(cmd *cobra.Command, a *app, e *editor.Editor) error {
	fields := e.Fields()
	if cmd.Flags().Changed("title") {
		fields.Title = f.title
	}
	if cmd.Flags().Changed("usecase") {
		fields.Usecase = f.usecase
	}
	if cmd.Flags().Changed("language") {
		lang, err := parseLanguage(f.language)
		if err != nil {
			return err
		}
		fields.Language = lang
	}
	if cmd.Flags().Changed("code") {
		fields.Code = f.code
	}
	if f.file != "" {
		src, err := readSource(cmd, f.file)
		if err != nil {
			return err
		}
		fields.Code = src
	}
	e.SetFields(fields)

	for _, t := range f.removeTags {
		e.Tags.Remove(t)
	}
	addTags(a, e.Tags, f.tags)
	return nil
}

func (a *app) newEditor() *editor.Editor {
	return editor.New(a.api, a.session, a.history, state.RealClock, a.logger)
}

// saveErr turns the editor's local validation failure into its message.
func saveErr(err error) error {
	if errors.Is(err, editor.ErrIncomplete) {
		return fmt.Errorf("%s (title, language, usecase, code and at least one tag)", editor.MsgFieldsRequired)
	}
	return err
}

func newAddCmd(a *app) *cobra.Command {
	var f snippetFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Save a new snippet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.protected("/add", func() error {
				e := a.newEditor()
				defer e.Close()
				if err := f.apply(cmd, a, e); err != nil {
					return err
				}
				created, err := e.Save(commandContext(cmd))
				if err != nil {
					return saveErr(err)
				}
				success(a.out, editor.MsgCreated)
				fmt.Fprintln(a.out, styles.Muted.Render("id "+created.ID))
				return nil
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var f snippetFlags
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change a snippet; fields not given keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return a.protected("/update/"+id, func() error {
				ctx := commandContext(cmd)
				current, err := a.api.GetSnippet(ctx, a.session.Token(), id)
				if err != nil {
					a.session.HandleUnauthorized(err)
					return err
				}

				e := a.newEditor()
				defer e.Close()
				e.Edit(*current)
				if reset, _ := cmd.Flags().GetBool("reset-tags"); reset {
					e.Tags.Reset()
				}
				if err := f.apply(cmd, a, e); err != nil {
					return err
				}

				if _, err := e.Update(ctx, id); err != nil {
					return saveErr(err)
				}
				success(a.out, editor.MsgUpdated)
				return nil
			})
		},
	}
	f.register(cmd)
	cmd.Flags().StringSliceVar(&f.removeTags, "remove-tag", nil, "remove this tag (repeatable)")
	cmd.Flags().Bool("reset-tags", false, "drop all existing tags before adding --tag values")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete a snippet",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.protected(nav.PathSnippets, func() error {
				view := collection.NewView(a.api, a.session, a.history, filter.NewStore(filter.Criteria{}), a.logger)
				defer view.Close()
				msg, err := view.Delete(commandContext(cmd), args[0])
				if err != nil {
					return err
				}
				success(a.out, msg)
				return nil
			})
		},
	}
}

func newRunCmd(a *app) *cobra.Command {
	var stdin, language, file string
	cmd := &cobra.Command{
		Use:   "run [ID]",
		Short: "Execute a saved snippet, or a local file with --language and --file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			if len(args) == 0 {
				if language == "" || file == "" {
					return errors.New("give a snippet ID, or both --language and --file")
				}
				lang, err := parseLanguage(language)
				if err != nil {
					return err
				}
				code, err := readSource(cmd, file)
				if err != nil {
					return err
				}
				return a.protected("/run_code", func() error {
					return a.execute(cmd, lang, code, stdin, a.session.Token())
				})
			}

			return a.protected("/run_code", func() error {
				s, err := a.api.GetSnippet(ctx, a.session.Token(), args[0])
				if err != nil {
					a.session.HandleUnauthorized(err)
					return err
				}
				return a.execute(cmd, s.Language, s.Code, stdin, a.session.Token())
			})
		},
	}
	cmd.Flags().StringVar(&stdin, "stdin", "", "input passed to the program")
	cmd.Flags().StringVarP(&language, "language", "l", "", "language of --file")
	cmd.Flags().StringVarP(&file, "file", "f", "", "source file to run, - for stdin")
	return cmd
}

// execute runs code and prints its output. It is only called from inside
// protected, which reports a rejected token as an expired session.
func (a *app) execute(cmd *cobra.Command, lang model.Language, code, stdin, token string) error {
	out, err := a.runner.Run(commandContext(cmd), lang, code, stdin, token)
	if a.session.HandleUnauthorized(err) {
		return err
	}
	if err != nil {
		a.logger.Warn("execution failed", slog.String("error", err.Error()))
		return runner.ErrExecutionFailed
	}
	fmt.Fprint(a.out, out)
	if len(out) > 0 && out[len(out)-1] != '\n' {
		fmt.Fprintln(a.out)
	}
	return nil
}

func newLanguagesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, l := range model.Languages {
				fmt.Fprintln(a.out, l)
			}
			return nil
		},
	}
}
