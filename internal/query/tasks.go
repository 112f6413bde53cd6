package query

import (
	"github.com/matthewbaird/infraview/internal/gql"
)

// Backend kinds with fixed shapes.
const (
	TaskKind              = "InfrahubTask"
	ValidatorKind         = "CoreValidator"
	ArtifactValidatorKind = "CoreArtifactValidator"
	UserValidatorKind     = "CoreUserValidator"
)

var taskFields = []string{"id", "title", "conclusion", "related_node", "related_node_kind", "created_at", "updated_at"}

func valueOf(names ...string) []gql.Selection {
	out := make([]gql.Selection, len(names))
	for i, n := range names {
		out[i] = gql.F(n, gql.F("value"))
	}
	return out
}

func peerRef(name string) *gql.Field {
	return gql.F(name, gql.F("node", gql.Fields("id", "display_label")...))
}

// ValidatorDetails builds the query for one validator, its checks, and the
// extra references carried by artifact and user validators.
func ValidatorDetails(id string) (string, error) {
	if id == "" {
		return "", ErrMissingID
	}
	check := append(nodeRef(), valueOf("conclusion", "severity", "kind")...)

	node := append(nodeRef(), valueOf("conclusion", "state", "started_at", "completed_at")...)
	node = append(node,
		connection("checks", nil, check...),
		gql.On(ArtifactValidatorKind, peerRef("definition")),
		gql.On(UserValidatorKind, peerRef("check_definition"), peerRef("repository")),
	)
	root := gql.F(ValidatorKind, gql.F("edges", gql.F("node", node...))).WithArgs(idsArg(id))
	return render(gql.NewQuery("", root))
}

// TasksList builds the paginated task list. Filter by related node with a
// related_node__ids argument.
func TasksList(args []gql.Argument) (string, error) {
	return render(gql.NewQuery("", connection(TaskKind, args, gql.Fields(taskFields...)...)))
}

// TaskDetails builds the query for one task including its log entries.
func TaskDetails(id string) (string, error) {
	if id == "" {
		return "", ErrMissingID
	}
	node := gql.Fields(taskFields...)
	node = append(node, gql.F("logs", gql.F("edges", gql.F("node", gql.Fields("id", "message", "severity", "timestamp")...))))
	return render(gql.NewQuery("", connection(TaskKind, []gql.Argument{idsArg(id)}, node...)))
}
