package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/sciro24/Kathara-labGenerator/addressing"
	"github.com/sciro24/Kathara-labGenerator/labfs"
	"github.com/sciro24/Kathara-labGenerator/render"
	"github.com/sciro24/Kathara-labGenerator/review"
	"github.com/sciro24/Kathara-labGenerator/topology"
)

// Creates a borderless table with the left-aligned columns.
func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader(header)
	return table
}

// Prints the link subnets with the member addresses followed by the
// router loopbacks.
func printPlan(w io.Writer, model *topology.Model, plan *addressing.Plan) {
	var rows [][]string
	for _, link := range plan.Links() {
		gateway := ""
		if link.Gateway.IsValid() {
			gateway = fmt.Sprintf("%s (%s)", link.Gateway, link.GatewayDevice)
		}
		subnet := link.Subnet.String()
		if link.Override {
			subnet += " *"
		}
		for i, member := range link.Members {
			if i == 0 {
				rows = append(rows, []string{link.Name, subnet, gateway, member.Ref.String(), member.Address.String()})
				continue
			}
			rows = append(rows, []string{"", "", "", member.Ref.String(), member.Address.String()})
		}
	}
	table := newTable(w, "LINK", "SUBNET", "GATEWAY", "INTERFACE", "ADDRESS")
	table.AppendBulk(rows)
	table.Render()

	rows = nil
	for _, router := range model.Routers() {
		if loopback, ok := plan.Loopback(router.ID); ok {
			rows = append(rows, []string{router.ID, loopback.String()})
		}
	}
	if len(rows) == 0 {
		return
	}
	fmt.Fprintln(w)
	table = newTable(w, "ROUTER", "LOOPBACK")
	table.AppendBulk(rows)
	table.Render()
}

// Prints the review issues.
func printIssues(w io.Writer, issues []*review.Issue) {
	rows := make([][]string, 0, len(issues))
	for _, issue := range issues {
		rows = append(rows, []string{
			string(issue.Kind),
			issue.Checker,
			strings.Join(issue.Refs, ", "),
			issue.Message,
		})
	}
	table := newTable(w, "KIND", "CHECKER", "REFS", "MESSAGE")
	table.AppendBulk(rows)
	table.Render()
}

// Prints the paths of the files that would be written.
func printArtifacts(w io.Writer, artifacts []*render.Artifact) {
	rows := make([][]string, 0, len(artifacts))
	for _, artifact := range artifacts {
		mode := "0644"
		if artifact.Executable {
			mode = "0755"
		}
		rows = append(rows, []string{artifact.Path, mode, fmt.Sprint(len(artifact.Content))})
	}
	table := newTable(w, "PATH", "MODE", "SIZE")
	table.AppendBulk(rows)
	table.Render()
}

// Prints the differences between the lab directory and the generated
// files. The changed lines follow the table.
func printDifferences(w io.Writer, differences []labfs.Difference) {
	rows := make([][]string, 0, len(differences))
	for _, difference := range differences {
		rows = append(rows, []string{difference.Path, string(difference.Kind)})
	}
	table := newTable(w, "PATH", "DIFFERENCE")
	table.AppendBulk(rows)
	table.Render()

	for _, difference := range differences {
		if difference.Diff == "" {
			continue
		}
		fmt.Fprintf(w, "\n--- %s\n%s", difference.Path, difference.Diff)
	}
}
