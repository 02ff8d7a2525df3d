package browser

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ppops/unifistats/internal/controller"
)

// DefaultAction is substituted for empty or unrecognized action
// identifiers.
const DefaultAction = "stat_daily_site"

// Action maps one action identifier to a human-readable label and the
// single facade call that serves it. FromCache marks the one entry
// answered from the session's cached site list instead of a remote
// call.
type Action struct {
	Label     string
	Endpoint  controller.Endpoint
	FromCache bool
}

// Report windows matching the controller's own retention per
// granularity.
const (
	window5Min   = 12 * time.Hour
	windowHourly = 7 * 24 * time.Hour
	windowDaily  = 52 * 7 * 24 * time.Hour
)

var siteReportAttrs = []string{
	"bytes", "wan-tx_bytes", "wan-rx_bytes", "wlan_bytes",
	"num_sta", "lan-num_sta", "wlan-num_sta", "time",
}

var gatewayReportAttrs = []string{
	"time", "mem", "cpu", "loadavg_5",
	"lan-rx_errors", "lan-tx_errors",
	"lan-rx_bytes", "lan-tx_bytes",
	"lan-rx_packets", "lan-tx_packets",
	"lan-rx_dropped", "lan-tx_dropped",
}

func get(path string) controller.Endpoint {
	return controller.Endpoint{Method: http.MethodGet, Path: path}
}

func post(path string, body map[string]any) controller.Endpoint {
	return controller.Endpoint{Method: http.MethodPost, Path: path, Body: body}
}

func report(path string, window time.Duration, attrs []string) controller.Endpoint {
	return controller.Endpoint{
		Method: http.MethodPost,
		Path:   path,
		Body:   map[string]any{"attrs": attrs},
		Window: window,
	}
}

var actions = map[string]Action{
	"list_clients":    {Label: "list online clients", Endpoint: get("stat/sta")},
	"stat_allusers":   {Label: "stat all users", Endpoint: post("stat/alluser", map[string]any{"type": "all", "conn": "all", "within": 8760})},
	"stat_auths":      {Label: "stat active authorisations", Endpoint: controller.Endpoint{Method: http.MethodPost, Path: "stat/authorization", Window: windowHourly}},
	"list_guests":     {Label: "list guests", Endpoint: post("stat/guest", map[string]any{"within": 8760})},
	"list_usergroups": {Label: "list usergroups", Endpoint: get("list/usergroup")},

	"stat_5minutes_site": {Label: "5 minute site stats", Endpoint: report("stat/report/5minutes.site", window5Min, siteReportAttrs)},
	"stat_hourly_site":   {Label: "hourly site stats", Endpoint: report("stat/report/hourly.site", windowHourly, siteReportAttrs)},
	"stat_daily_site":    {Label: "daily site stats", Endpoint: report("stat/report/daily.site", windowDaily, siteReportAttrs)},

	"stat_5minutes_aps": {Label: "5 minute ap stats", Endpoint: report("stat/report/5minutes.ap", window5Min, []string{"bytes", "num_sta", "time"})},
	"stat_hourly_aps":   {Label: "hourly ap stats", Endpoint: report("stat/report/hourly.ap", windowHourly, []string{"bytes", "num_sta", "time"})},
	"stat_daily_aps":    {Label: "daily ap stats", Endpoint: report("stat/report/daily.ap", windowDaily, []string{"bytes", "num_sta", "time"})},

	"stat_5minutes_gateway": {Label: "5 minute gateway stats", Endpoint: report("stat/report/5minutes.gw", window5Min, gatewayReportAttrs)},
	"stat_hourly_gateway":   {Label: "hourly gateway stats", Endpoint: report("stat/report/hourly.gw", windowHourly, gatewayReportAttrs)},
	"stat_daily_gateway":    {Label: "daily gateway stats", Endpoint: report("stat/report/daily.gw", windowDaily, gatewayReportAttrs)},

	"stat_sysinfo": {Label: "sysinfo", Endpoint: get("stat/sysinfo")},
	"list_devices": {Label: "list devices", Endpoint: get("stat/device")},
	"list_tags":    {Label: "list tags", Endpoint: get("rest/tagmember")},

	"list_wlan_groups":    {Label: "list wlan groups", Endpoint: get("list/wlangroup")},
	"stat_sessions":       {Label: "stat sessions", Endpoint: controller.Endpoint{Method: http.MethodPost, Path: "stat/session", Body: map[string]any{"type": "all"}, Window: windowHourly}},
	"list_users":          {Label: "list users", Endpoint: get("list/user")},
	"list_known_rogueaps": {Label: "list known rogue access points", Endpoint: get("rest/rogueknown")},
	"list_events":         {Label: "list events", Endpoint: post("stat/event", map[string]any{"_sort": "-time", "within": 720})},
	"list_alarms":         {Label: "list alarms", Endpoint: get("list/alarm")},
	"list_firewallgroups": {Label: "list firewall groups", Endpoint: get("rest/firewallgroup")},

	"count_alarms":        {Label: "count all alarms", Endpoint: get("cnt/alarm")},
	"count_alarms(false)": {Label: "count active alarms", Endpoint: get("cnt/alarm?archived=false")},

	"list_wlanconf":        {Label: "list wlan config", Endpoint: get("rest/wlanconf")},
	"list_health":          {Label: "site health metrics", Endpoint: get("stat/health")},
	"list_dashboard(true)": {Label: "5 minutes site dashboard metrics", Endpoint: get("stat/dashboard?scale=5minutes")},
	"list_hourly_dashboard": {Label: "hourly site dashboard metrics", Endpoint: get("stat/dashboard")},
	"list_settings":         {Label: "list site settings", Endpoint: get("get/setting")},

	"list_sites": {Label: "details of available sites", FromCache: true},

	"list_extension":   {Label: "list VoIP extensions", Endpoint: get("list/extension")},
	"list_portconf":    {Label: "list port configuration", Endpoint: get("list/portconf")},
	"list_networkconf": {Label: "list network configuration", Endpoint: get("rest/networkconf")},
	"list_dynamicdns":  {Label: "dynamic DNS configuration", Endpoint: get("list/dynamicdns")},

	"list_current_channels":  {Label: "current channels", Endpoint: get("stat/current-channel")},
	"list_portforwarding":    {Label: "list port forwarding rules", Endpoint: get("list/portforward")},
	"list_portforward_stats": {Label: "list port forwarding stats", Endpoint: get("stat/portforward")},
	"list_dpi_stats":         {Label: "list DPI stats", Endpoint: get("stat/dpi")},

	"stat_voucher":   {Label: "list hotspot vouchers", Endpoint: post("stat/voucher", nil)},
	"stat_payment":   {Label: "list hotspot payments", Endpoint: get("stat/payment")},
	"list_hotspotop": {Label: "list hotspot operators", Endpoint: get("rest/hotspotop")},

	"list_self":  {Label: "self", Endpoint: get("self")},
	"stat_sites": {Label: "all site stats", Endpoint: controller.Endpoint{Method: http.MethodGet, Path: "stat/sites", SiteLess: true}},

	"list_admins":     {Label: "list_admins", Endpoint: post("cmd/sitemgr", map[string]any{"cmd": "get-admins"})},
	"list_all_admins": {Label: "list_all_admins", Endpoint: controller.Endpoint{Method: http.MethodGet, Path: "stat/admin", SiteLess: true}},

	"list_radius_accounts": {Label: "list Radius accounts", Endpoint: get("rest/account")},
	"list_radius_profiles": {Label: "list Radius profiles", Endpoint: get("rest/radiusprofile")},
	"list_country_codes":   {Label: "list country codes", Endpoint: get("stat/ccode")},
	"list_backups":         {Label: "list auto backups", Endpoint: post("cmd/backup", map[string]any{"cmd": "list-backups"})},
	"stat_ips_events":      {Label: "list IPS/IDS events", Endpoint: post("stat/ips/event", map[string]any{"_limit": 1000})},
}

func init() {
	if _, ok := actions[DefaultAction]; !ok {
		panic("browser: default action missing from table")
	}
	for id, a := range actions {
		if a.Label == "" {
			panic(fmt.Sprintf("browser: action %q has no label", id))
		}
		if !a.FromCache && a.Endpoint.Path == "" {
			panic(fmt.Sprintf("browser: action %q has no endpoint", id))
		}
	}
}

// ResolveAction maps an action identifier to its table entry. Empty or
// unrecognized identifiers resolve to the default action instead of
// failing.
func ResolveAction(id string) (string, Action) {
	if a, ok := actions[id]; ok {
		return id, a
	}
	return DefaultAction, actions[DefaultAction]
}

// ActionIDs returns all known action identifiers, for menu rendering.
func ActionIDs() []string {
	ids := make([]string, 0, len(actions))
	for id := range actions {
		ids = append(ids, id)
	}
	return ids
}
