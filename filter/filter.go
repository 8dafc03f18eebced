package filter

import (
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/jikamens/b2sweeper/b2"
)

// Filter is a compiled expression evaluated against file versions.
type Filter struct {
	program *vm.Program
	expr    string
}

// Compile compiles a filter expression. The expression sees the file
// being tested as File plus the helper functions documented in helpers().
func Compile(expression string) (*Filter, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, &CompilationError{Expression: expression, Reason: "empty filter expression"}
	}

	program, err := expr.Compile(expression,
		expr.Env(staticEnv()),
		expr.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     err.Error(),
			Err:        err,
		}
	}

	return &Filter{program: program, expr: expression}, nil
}

// Evaluate runs the filter against one file version.
func (f *Filter) Evaluate(file b2.FileVersion) (bool, error) {
	output, err := expr.Run(f.program, envFor(file))
	if err != nil {
		return false, &EvaluationError{
			Expression: f.expr,
			FileName:   file.FileName,
			Reason:     err.Error(),
			Err:        err,
		}
	}

	result, ok := output.(bool)
	if !ok {
		return false, &EvaluationError{
			Expression: f.expr,
			FileName:   file.FileName,
			Reason:     "expression did not return a boolean",
		}
	}
	return result, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	return f.expr
}

// staticEnv holds the helpers available at compile time. File fields are
// resolved dynamically, so compilation only validates the helpers.
func staticEnv() map[string]any {
	return helpers(b2.FileVersion{})
}

// envFor builds the evaluation environment for one file.
func envFor(file b2.FileVersion) map[string]any {
	env := helpers(file)
	env["File"] = file
	env["Name"] = file.FileName
	env["Size"] = file.ContentLength
	env["Action"] = file.Action
	env["Uploaded"] = file.Uploaded()
	return env
}

func helpers(file b2.FileVersion) map[string]any {
	return map[string]any{
		// Date helpers
		"daysSince": func(t time.Time) int {
			return int(time.Since(t).Hours() / 24)
		},
		"daysAgo": func(days int) time.Time {
			return time.Now().AddDate(0, 0, -days)
		},
		"monthsAgo": func(months int) time.Time {
			return time.Now().AddDate(0, -months, 0)
		},
		"yearsAgo": func(years int) time.Time {
			return time.Now().AddDate(-years, 0, 0)
		},
		"parseDate": func(dateStr string) time.Time {
			t, _ := time.Parse("2006-01-02", dateStr)
			return t
		},
		"now": time.Now,

		// String helpers
		"contains": func(str, substr string) bool {
			return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
		},
		"startsWith": func(str, prefix string) bool {
			return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
		},
		"endsWith": func(str, suffix string) bool {
			return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
		},
		"lower": strings.ToLower,
		"upper": strings.ToUpper,

		// File helpers
		"olderThanDays": func(days int) bool {
			return file.Uploaded().Before(time.Now().AddDate(0, 0, -days))
		},
		"isHidden": func() bool {
			return file.Action == b2.ActionHide
		},
		"hasInfo": func(key string) bool {
			_, ok := file.FileInfo[key]
			return ok
		},
		"info": func(key string) string {
			return file.FileInfo[key]
		},
	}
}
