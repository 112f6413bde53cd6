package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/matthewbaird/infraview/internal/gql"
)

// BranchAction is a branch mutation.
type BranchAction int

const (
	BranchCreate BranchAction = iota
	BranchDelete
	BranchMerge
	BranchRebase
	BranchValidate
)

var branchActionNames = [...]string{"create", "delete", "merge", "rebase", "validate"}

func (a BranchAction) String() string {
	if a < 0 || int(a) >= len(branchActionNames) {
		return fmt.Sprintf("BranchAction(%d)", int(a))
	}
	return branchActionNames[a]
}

// mutation returns the backend mutation field name, e.g. BranchCreate.
func (a BranchAction) mutation() string {
	s := a.String()
	return "Branch" + strings.ToUpper(s[:1]) + s[1:]
}

// ParseBranchAction parses a lower-case action name.
func ParseBranchAction(s string) (BranchAction, error) {
	for i, name := range branchActionNames {
		if strings.EqualFold(s, name) {
			return BranchAction(i), nil
		}
	}
	return 0, fmt.Errorf("unknown branch action %q", s)
}

// ErrMissingBranch is returned when a branch mutation has no name.
var ErrMissingBranch = errors.New("branch name is required")

// BranchInput is the data argument of a branch mutation. Description and
// SyncWithGit are sent by create only.
type BranchInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	SyncWithGit bool   `json:"sync_with_git,omitempty"`
}

var branchFields = []string{"id", "name", "description", "origin_branch", "branched_from", "created_at", "sync_with_git", "is_default"}

// BranchMutation builds the mutation for action. Every mutation selects ok;
// all but delete also select the resulting branch object, and validate
// selects its messages.
func BranchMutation(action BranchAction, in BranchInput) (string, error) {
	if in.Name == "" {
		return "", ErrMissingBranch
	}
	if action < BranchCreate || action > BranchValidate {
		return "", fmt.Errorf("unknown branch action %d", int(action))
	}

	data := gql.Object{{Name: "name", Value: gql.String(in.Name)}}
	if action == BranchCreate {
		data = append(data,
			gql.ObjectField{Name: "description", Value: gql.String(in.Description)},
			gql.ObjectField{Name: "sync_with_git", Value: gql.Bool(in.SyncWithGit)},
		)
	}

	f := gql.F(action.mutation(), gql.F("ok")).WithArgs(gql.Arg("data", data))
	if action == BranchValidate {
		f.Add(gql.F("messages"))
	}
	if action != BranchDelete {
		f.Add(gql.F("object", gql.Fields(branchFields...)...))
	}
	return render(gql.NewMutation("", f))
}

// BranchList builds the query listing all branches.
func BranchList() (string, error) {
	fields := append(gql.Fields(branchFields...), gql.F("has_schema_changes"))
	return render(gql.NewQuery("", gql.F("Branch", fields...)))
}
