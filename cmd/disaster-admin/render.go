package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/mr1hm/go-disaster-admin/internal/controller"
	"github.com/mr1hm/go-disaster-admin/internal/models"
)

// badge upper-cases a known enum value. Values outside the known set are
// shown as they are, marked with '?'.
func badge(value string, valid bool) string {
	if !valid {
		return "?" + value
	}
	return strings.ToUpper(value)
}

func table(w io.Writer, header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	return tw
}

func row(tw *tabwriter.Writer, cols ...any) {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprint(c)
	}
	fmt.Fprintln(tw, strings.Join(parts, "\t"))
}

func renderAlerts(w io.Writer, alerts []models.Alert, now time.Time) {
	if len(alerts) == 0 {
		fmt.Fprintln(w, "No alerts match.")
		return
	}
	tw := table(w, "ID", "SEVERITY", "STATUS", "TITLE", "LOCATION", "UPDATED")
	for _, a := range alerts {
		row(tw, a.ID, badge(string(a.Severity), a.Severity.Valid()), badge(string(a.Status), a.Status.Valid()),
			a.Title, a.Location, models.RelativeTime(a.UpdatedAt, now))
	}
	tw.Flush()
}

func renderResources(w io.Writer, resources []models.Resource, counts map[models.ResourceStatus]int) {
	fmt.Fprintf(w, "available: %d  deployed: %d  maintenance: %d\n",
		counts[models.ResourceStatusAvailable], counts[models.ResourceStatusDeployed], counts[models.ResourceStatusMaintenance])
	if len(resources) == 0 {
		fmt.Fprintln(w, "No resources match.")
		return
	}
	tw := table(w, "ID", "TYPE", "STATUS", "NAME", "AVAILABLE", "LOCATION")
	for _, r := range resources {
		row(tw, r.ID, badge(string(r.Type), r.Type.Valid()), badge(string(r.Status), r.Status.Valid()),
			r.Name, fmt.Sprintf("%d/%d", r.Available, r.Quantity), r.Location)
	}
	tw.Flush()
}

func renderIncidents(w io.Writer, incidents []models.Incident, now time.Time) {
	if len(incidents) == 0 {
		fmt.Fprintln(w, "No incidents match.")
		return
	}
	tw := table(w, "ID", "SEVERITY", "STATUS", "TITLE", "LOCATION", "REPORTED BY", "UPDATED")
	for _, i := range incidents {
		row(tw, i.ID, badge(string(i.Severity), i.Severity.Valid()), badge(string(i.Status), i.Status.Valid()),
			i.Title, i.Location, i.ReportedBy, models.RelativeTime(i.UpdatedAt, now))
	}
	tw.Flush()
}

func renderTeams(w io.Writer, teams []models.Team, counts map[models.TeamStatus]int) {
	fmt.Fprintf(w, "available: %d  deployed: %d  training: %d\n",
		counts[models.TeamStatusAvailable], counts[models.TeamStatusDeployed], counts[models.TeamStatusTraining])
	if len(teams) == 0 {
		fmt.Fprintln(w, "No teams match.")
		return
	}
	tw := table(w, "ID", "TYPE", "STATUS", "NAME", "LEADER", "MEMBERS", "LOCATION")
	for _, t := range teams {
		row(tw, t.ID, badge(string(t.Type), t.Type.Valid()), badge(string(t.Status), t.Status.Valid()),
			t.Name, t.Leader, len(t.Members), t.Location)
	}
	tw.Flush()
}

func renderPlans(w io.Writer, plans []models.EvacuationPlan, now time.Time) {
	if len(plans) == 0 {
		fmt.Fprintln(w, "No evacuation plans match.")
		return
	}
	for _, p := range plans {
		fmt.Fprintf(w, "%s  %s  %s (%s), capacity %s, updated %s\n", p.ID, badge(string(p.Status), p.Status.Valid()),
			p.Name, p.Area, humanize.Comma(int64(p.Capacity)), models.RelativeTime(p.LastUpdated, now))
		for _, s := range p.Shelters {
			fmt.Fprintf(w, "    shelter %-24s %3d%% full  %s\n", s.Name, s.Occupancy(), badge(string(s.Status), s.Status.Valid()))
		}
		for _, r := range p.Routes {
			fmt.Fprintf(w, "    route   %-24s %s -> %s  %s\n", r.Name, r.From, r.To, badge(string(r.Status), r.Status.Valid()))
		}
	}
}

func renderMessages(w io.Writer, messages []models.Message, now time.Time) {
	if len(messages) == 0 {
		fmt.Fprintln(w, "No messages match.")
		return
	}
	tw := table(w, "ID", "PRIORITY", "STATUS", "FROM", "TO", "SUBJECT", "SENT")
	for _, m := range messages {
		row(tw, m.ID, badge(string(m.Priority), m.Priority.Valid()), badge(string(m.Status), m.Status.Valid()),
			m.From, m.To, m.Subject, models.RelativeTime(m.Timestamp, now))
	}
	tw.Flush()
}

func renderUsers(w io.Writer, users []models.User, now time.Time) {
	tw := table(w, "ID", "NAME", "ROLE", "DEPARTMENT", "LAST ACTIVE")
	for _, u := range users {
		row(tw, u.ID, u.Name, u.Role, u.Department, models.RelativeTime(u.LastActive, now))
	}
	tw.Flush()
}

func renderWeather(w io.Writer, c *controller.Weather) {
	d := c.Data()
	fmt.Fprintf(w, "Weather for %s: %s, %.0f°C, humidity %.0f%%, wind %.0f km/h, visibility %.0f km\n",
		d.Location, d.Condition, d.Temperature, d.Humidity, d.WindSpeed, d.Visibility)
	if c.Fallback() {
		fmt.Fprintln(w, "  (live data unavailable, showing defaults)")
	}
	if d.AQI != nil {
		fmt.Fprintf(w, "  air quality %.0f (%s), PM2.5 %.0f, PM10 %.0f\n", d.AQI.Overall, d.AQI.Level, d.AQI.PM25, d.AQI.PM10)
	}
	if d.UVIndex != nil {
		fmt.Fprintf(w, "  UV index %.0f (%s)\n", d.UVIndex.Value, d.UVIndex.Level)
	}
	if d.SunTimes != nil {
		fmt.Fprintf(w, "  sunrise %s, sunset %s\n", d.SunTimes.Sunrise, d.SunTimes.Sunset)
	}
	for _, a := range d.Alerts {
		fmt.Fprintf(w, "  [%s] %s\n", badge(string(controller.AlertSeverity(a)), true), a)
	}
	if len(d.Forecast) > 0 {
		tw := table(w, "  DATE", "HIGH", "LOW", "CONDITION", "RAIN")
		for _, f := range d.Forecast {
			row(tw, "  "+f.Date, fmt.Sprintf("%.0f", f.High), fmt.Sprintf("%.0f", f.Low), f.Condition, fmt.Sprintf("%.0f%%", f.Precipitation))
		}
		tw.Flush()
	}
}

func renderDashboard(w io.Writer, d *controller.Dashboard, now time.Time) {
	fmt.Fprintf(w, "Active alerts: %d   Resources available: %s/%s   Open incidents: %d\n",
		len(d.ActiveAlerts()), humanize.Comma(int64(d.AvailableResources())), humanize.Comma(int64(d.TotalResources())), d.OpenIncidents())
	if a, ok := d.Analytics(); ok {
		fmt.Fprintf(w, "Incidents total %d, resolved %d, avg response %s, utilization %.0f%%\n",
			a.TotalIncidents, a.ResolvedIncidents, a.AverageResponseTime, a.ResourceUtilization)
	}

	fmt.Fprintln(w, "\nRecent alerts:")
	recent := d.RecentAlerts(3)
	if len(recent) == 0 {
		fmt.Fprintln(w, "  No active alerts")
	}
	for _, a := range recent {
		fmt.Fprintf(w, "  [%s] %s, %s (%s)\n", badge(string(a.Severity), a.Severity.Valid()), a.Title, a.Location, models.RelativeTime(a.CreatedAt, now))
	}

	fmt.Fprintln(w, "\nRecent incidents:")
	incidents := d.RecentIncidents(3)
	if len(incidents) == 0 {
		fmt.Fprintln(w, "  No recent activity")
	}
	for _, i := range incidents {
		fmt.Fprintf(w, "  [%s] %s, %s\n", badge(string(i.Status), i.Status.Valid()), i.Title, i.Location)
	}

	errs := d.SourceErrors()
	for _, name := range slices.Sorted(maps.Keys(errs)) {
		fmt.Fprintf(w, "warning: %s unavailable: %s\n", name, userMessage(errs[name]))
	}
}
