// Package catalog declares the schema of every documented PBX configuration
// module. Declarations are data; all behavior lives in core/model.
package catalog

import (
	"context"
	"fmt"

	"github.com/pbxtools/pbxdoc/core/model"
	"github.com/pbxtools/pbxdoc/core/registry"
	"github.com/pbxtools/pbxdoc/ports"
)

// New builds a registry holding the full module catalog. Registration order
// is meaningful: it fixes document order and destination-regex precedence.
func New() (*registry.Registry, error) {
	reg := registry.New()
	for _, s := range Schemas() {
		if err := reg.Register(s); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Schemas returns fresh schema declarations for every module, in catalog
// order.
func Schemas() []*model.Schema {
	return []*model.Schema{
		inboundRoute(),
		callRecording(),
		parkingLot(),
		directory(),
		directoryEntry(),
		queue(),
		extension(),
		blacklist(),
		ivr(),
		ivrEntry(),
		ringGroup(),
		administrator(),
		timeCondition(),
		timeGroupDetails(),
		timeGroup(),
		announcement(),
		miscApplication(),
		customDestination(),
		miscDestination(),
		recording(),
		customExtension(),
		featureCode(),
	}
}

func inboundRoute() *model.Schema {
	return &model.Schema{
		Name:        "InboundRoute",
		Description: "Inbound Routes",
		ItemName:    "Inbound Route",
		Repr:        "{description} ({extension})",
		Table:       "incoming",
		PKField:     "extension",
		Layout:      model.LayoutTable,
		Fields: []*model.Definition{
			model.String("extension", "DID number"),
			model.String("description", "description"),
			model.Destination("destination", "destination"),
			model.String("notes", "Notes"),
		},
	}
}

func callRecording() *model.Schema {
	return &model.Schema{
		Name:        "CallRecording",
		Description: "Call Recordings",
		ItemName:    "Call Recording",
		Repr:        "{description}",
		DestRegex:   "ext-callrecording,([0-9]+)",
		Table:       "callrecording",
		PKField:     "callrecording_id",
		Layout:      model.LayoutList,
		ConfigParams: func(get func(string) string) map[string]string {
			return map[string]string{"display": "callrecording", "type": "setup", "extdisplay": get("callrecording_id")}
		},
		Fields: []*model.Definition{
			model.Int("callrecording_id", ""),
			model.String("description", "description"),
			model.Enum("callrecording_mode", "call recording mode",
				model.EnumValue{Key: "", Label: "Allow"},
				model.EnumValue{Key: "delayed", Label: "Record on Answer"},
				model.EnumValue{Key: "force", Label: "Record Immediately"},
				model.EnumValue{Key: "never", Label: "Never"},
			),
			model.Destination("dest", "destination"),
		},
	}
}

func parkingLot() *model.Schema {
	return &model.Schema{
		Name:        "ParkingLot",
		Description: "Parking Lots",
		ItemName:    "Parking Lot",
		Repr:        "{name}",
		Table:       "parkplus",
		PKField:     "id",
		Layout:      model.LayoutList,
		ConfigParams: func(get func(string) string) map[string]string {
			return map[string]string{"display": "parking", "type": "action", "id": get("id")}
		},
		Fields: []*model.Definition{
			model.Int("id", ""),
			model.Int("parkext", "parking lot extension"),
			model.String("name", "parking lot name"),
			model.Int("parkpos", "parking lot starting position"),
			model.Int("numslots", "number of slots"),
			model.Int("parkingtime", "parking timeout"),
			model.String("parkedmusicclass", "parked music class"),
			model.Bool("generatehints", "BLF capabilities", "no", "yes"),
			model.String("findslot", "find slot"),
			model.String("parkedplay", "pickup courtesy tone"),
			model.String("parkedcalltransfers", "transfer capability"),
			model.String("parkedcallreparking", "reparking capability"),
			model.String("alertinfo", "parking alert-info"),
			model.String("cidpp", "callerID prepend"),
			model.String("autocidpp", "auto callerID prepend"),
			model.ForeignKey("announcement_id", "announcement", "Recording", map[string]string{"0": "None"}),
			model.Bool("comebacktoorigin", "come back to origin", "no", "yes"),
			model.Destination("dest", "destination"),
		},
	}
}

func directory() *model.Schema {
	return &model.Schema{
		Name:        "Directory",
		Description: "Directories",
		ItemName:    "Directory",
		Repr:        "{dirname}",
		DestRegex:   "directory,([0-9]+)",
		Table:       "directory_details",
		PKField:     "id",
		Layout:      model.LayoutList,
		ConfigParams: func(get func(string) string) map[string]string {
			return map[string]string{"display": "directory", "id": get("id")}
		},
		Fields: []*model.Definition{
			model.Int("id", ""),
			model.String("dirname", "directory name"),
			model.String("description", "directory description"),
			model.String("callid_prefix", "CID prefix"),
			model.String("alert_info", "alert info"),
			model.ForeignKey("announcement", "announcement", "Recording", map[string]string{"0": "None"}),
			model.Int("repeat_loops", "invalid retries"),
			model.ForeignKey("repeat_recording", "invalid retry recording", "Recording", map[string]string{"": "None", "0": "Default"}),
			model.ForeignKey("invalid_recording", "invalid recording", "Recording", map[string]string{"": "None", "0": "Default"}),
			model.Destination("invalid_destination", "invalid destination"),
			model.Bool("retivr", "return to IVR", "", "1"),
			model.Bool("say_extension", "announce extension", "", "1"),
			model.ManyToMany("entries", "directory entries", "DirectoryEntry", "id"),
		},
	}
}

func directoryEntry() *model.Schema {
	return &model.Schema{
		Name:        "DirectoryEntry",
		Description: "Directory Entries",
		ItemName:    "Directory Entry",
		Repr:        "{name}",
		Table:       "directory_entries",
		PKField:     "id",
		Layout:      model.LayoutNone,
		ReprFunc:    directoryEntryLabel,
		Fields: []*model.Definition{
			model.Int("id", ""),
			model.Int("e_id", ""),
			model.String("name", ""),
			model.String("audio", ""),
			model.String("type", ""),
			model.Int("foreign_id", ""),
			model.String("dial", ""),
		},
	}
}

// directoryEntryLabel builds the entry label. Entries of type "user" point
// at an extension, so their name and dial number come from the Extension
// module; the audio column is either a symbolic greeting mode or a numeric
// recording id.
func directoryEntryLabel(ctx context.Context, r *model.Record) (string, error) {
	pc := r.Context()

	name, err := r.Field("name").Render(ctx)
	if err != nil {
		return "", err
	}
	dial, err := r.Field("dial").Render(ctx)
	if err != nil {
		return "", err
	}
	if t, _ := r.Field("type").Value().(string); t == "user" {
		dial, err = r.Field("foreign_id").Render(ctx)
		if err != nil {
			return "", err
		}
		if col := pc.Collection("Extension"); col != nil {
			ext, err := col.Get(ctx, dial)
			if err == nil && ext != nil {
				if name, err = ext.Field("name").Render(ctx); err != nil {
					return "", err
				}
			}
		}
	}

	audioKey, hasAudio := r.Field("audio").Value().(string)
	audio := ""
	if !hasAudio {
		audio = "Voicemail Greeting"
	} else {
		switch audioKey {
		case "tts":
			audio = "Text-to-speech"
		case "spell":
			audio = "Spell name"
		case "vm":
			audio = "Voicemail Greeting"
		}
	}
	if audio == "" {
		audio = "Recording: None"
		if col := pc.Collection("Recording"); col != nil {
			rec, err := col.Get(ctx, audioKey)
			if err == nil && rec != nil {
				label, err := rec.Label(ctx)
				if err != nil {
					return "", err
				}
				audio = "Recording: " + label
			}
		}
	}

	return fmt.Sprintf("%s (%s): %s", name, audio, dial), nil
}

func queue() *model.Schema {
	return &model.Schema{
		Name:        "Queue",
		Description: "Queues",
		ItemName:    "Queue",
		Repr:        "{extension}: {descr}",
		DestRegex:   "ext-queues,([0-9]+)",
		Table:       "queues_config",
		PKField:     "extension",
		Layout:      model.LayoutList,
		ConfigParams: func(get func(string) string) map[string]string {
			return map[string]string{"display": "queues", "extdisplay": get("extension")}
		},
		Fields: []*model.Definition{
			model.Int("extension", "queue number"),
			model.String("descr", "queue name"),
			model.String("password", "queue password"),
			model.Bool("togglehint", "generate device hints", "0", "1"),
			model.Bool("callconfirm", "call confirm", "0", "1"),
			model.ForeignKey("callconfirm_id", "call confirm announce", "Recording", map[string]string{"0": "Default"}),
			model.String("grppre", "CID name prefix"),
			model.Bool("queuewait", "wait time prefix", "0", "1"),
			model.String("alertinfo", "alertinfo"),
			model.List("members", "\n", "static agents").
				At(ports.PageLocation{Tag: "textarea", Attr: "id", Value: "members"}),
			model.List("dynmembers", "\n", "dynamic members").
				At(ports.PageLocation{Tag: "textarea", Attr: "id", Value: "dynmembers"}),
			model.Destination("dest", "fail over destination"),
		},
	}
}

func extension() *model.Schema {
	return &model.Schema{
		Name:        "Extension",
		Description: "Extensions",
		ItemName:    "Extension",
		Repr:        "<{extension}> {name}",
		DestRegex:   "from-did-direct,([0-9]+)",
		Table:       "users",
		PKField:     "extension",
		Layout:      model.LayoutNone,
		Fields: []*model.Definition{
			model.Int("extension", ""),
			model.String("name", "name"),
		},
	}
}

func blacklist() *model.Schema {
	return &model.Schema{
		Name:        "Blacklist",
		Description: "Blacklist",
		ItemName:    "Blacklist",
		Repr:        "{description}",
		PKField:     "number",
		Layout:      model.LayoutTable,
		PageRows:    blacklistRows,
		Fields: []*model.Definition{
			model.String("description", "description"),
			model.String("number", "Number/CID"),
		},
	}
}

// blacklistRows scrapes the blacklist admin page; blacklist entries are not
// persisted relationally anywhere we can reach.
func blacklistRows(ctx context.Context, pc *model.Context) ([]ports.Row, error) {
	if pc.Pages == nil {
		return nil, nil
	}
	page, err := pc.Pages.Fetch(ctx, map[string]string{"display": "blacklist"})
	if err != nil {
		return nil, err
	}
	table, err := page.TableAfter("Blacklist entries")
	if err != nil {
		return nil, nil
	}
	rows := make([]ports.Row, 0, len(table))
	for _, cells := range table {
		if len(cells) < 2 {
			continue
		}
		rows = append(rows, ports.Row{"number": cells[0], "description": cells[1]})
	}
	return rows, nil
}

func ivr() *model.Schema {
	return &model.Schema{
		Name:        "IVR",
		Description: "IVRs",
		ItemName:    "IVR",
		Repr:        "{name}",
		DestRegex:   "ivr-([0-9]+)",
		Table:       "ivr_details",
		PKField:     "id",
		Layout:      model.LayoutList,
		ConfigParams: func(get func(string) string) map[string]string {
			return map[string]string{"display": "ivr", "action": "edit", "id": get("id")}
		},
		Fields: []*model.Definition{
			model.Int("id", ""),
			model.String("name", "IVR name"),
			model.String("description", "IVR description"),
			model.ForeignKey("announcement", "announcement", "Recording", map[string]string{"0": "None"}),
			model.ForeignKey("directdial", "direct dial", "Directory", map[string]string{"": "Disabled", "ext-local": "Extensions"}),
			model.Int("timeout_time", "timeout"),
			model.Int("invalid_loops", "invalid loops"),
			model.ForeignKey("invalid_retry_recording", "invalid retry recording", "Recording", map[string]string{"": "None", "default": "Default"}),
			model.Bool("invalid_append_announce", "append announcement on invalid", "0", "1"),
			model.ForeignKey("invalid_recording", "invalid recording", "Recording", map[string]string{"": "None", "default": "Default"}),
			model.Destination("invalid_destination", "invalid destination"),
			model.Int("timeout_loops", "timeout retries"),
			model.ForeignKey("timeout_retry_recording", "timeout retry recording", "Recording", map[string]string{"": "None", "default": "Default"}),
			model.Bool("timeout_append_announce", "append announcement on timeout", "0", "1"),
			model.ForeignKey("timeout_recording", "timeout recording", "Recording", map[string]string{"": "None", "default": "Default"}),
			model.Destination("timeout_destination", "timeout destination"),
			model.Bool("retvm", "return to IVR after VM", "", "on"),
			model.ManyToMany("entries", "IVR entries", "IVREntry", "ivr_id"),
		},
	}
}

func ivrEntry() *model.Schema {
	return &model.Schema{
		Name:        "IVREntry",
		Description: "IVR entries",
		ItemName:    "IVR entry",
		Repr:        "{selection}: {dest}",
		Table:       "ivr_entries",
		PKField:     "ivr_id",
		Layout:      model.LayoutNone,
		Fields: []*model.Definition{
			model.Int("ivr_id", ""),
			model.String("selection", "selection"),
			model.Destination("dest", "destination"),
		},
	}
}

func ringGroup() *model.Schema {
	return &model.Schema{
		Name:        "RingGroup",
		Description: "Ring Groups",
		ItemName:    "Ring Group",
		Repr:        "{description} ({grpnum})",
		DestRegex:   "ext-group,([0-9]+)",
		Table:       "ringgroups",
		PKField:     "grpnum",
		Layout:      model.LayoutList,
		ConfigParams: func(get func(string) string) map[string]string {
			return map[string]string{"display": "ringgroups", "extdisplay": "GRP-" + get("grpnum")}
		},
		Fields: []*model.Definition{
			model.Int("grpnum", "group number"),
			model.String("description", "group description"),
			model.String("strategy", "ring strategy"),
			model.Int("grptime", "ring time"),
			model.List("grplist", "-", "extension list"),
			model.ForeignKey("annmsg_id", "announcement", "Recording", map[string]string{"0": "None"}),
			model.String("ringing", "play music on hold"),
			model.String("grppre", "CID name prefix"),
			model.String("alertinfo", "alert info"),
			model.Bool("cfignore", "ignore CF settings", "", "CHECKED"),
			model.Bool("cwignore", "skip busy agent", "", "CHECKED"),
			model.Bool("cpickup", "enable call pickup", "", "CHECKED"),
			model.Bool("needsconf", "confirm calls", "", "CHECKED"),
			model.ForeignKey("remotealert_id", "remote announce", "Recording", map[string]string{"0": "Default"}),
			model.ForeignKey("toolate_id", "too-late announce", "Recording", map[string]string{"0": "Default"}),
			model.Destination("postdest", "destination if no answer"),
		},
	}
}

func administrator() *model.Schema {
	return &model.Schema{
		Name:        "Administrator",
		Description: "Administrators",
		ItemName:    "Administrator",
		Repr:        "{username}",
		Table:       "ampusers",
		PKField:     "username",
		Layout:      model.LayoutList,
		ConfigParams: func(get func(string) string) map[string]string {
			return map[string]string{"display": "ampusers", "userdisplay": get("username")}
		},
		Fields: []*model.Definition{
			model.String("username", "username"),
			model.String("password_sha1", "password hash"),
			model.String("deptname", "department name"),
			model.Int("extension_low", "extension low"),
			model.Int("extension_high", "extension high"),
			model.List("sections", ";", "permissions"),
		},
	}
}

func timeCondition() *model.Schema {
	return &model.Schema{
		Name:        "TimeCondition",
		Description: "Time Conditions",
		ItemName:    "Time Condition",
		Repr:        "{displayname}",
		DestRegex:   "timeconditions,([0-9]+)",
		Table:       "timeconditions",
		PKField:     "timeconditions_id",
		Layout:      model.LayoutList,
		ConfigParams: func(get func(string) string) map[string]string {
			return map[string]string{"display": "timeconditions", "itemid": get("timeconditions_id")}
		},
		Fields: []*model.Definition{
			model.Int("timeconditions_id", ""),
			model.String("displayname", "time condition name"),
			model.ForeignKey("time", "time group", "TimeGroup", map[string]string{"0": "Default"}),
			model.Destination("truegoto", "destination if time matches"),
			model.Destination("falsegoto", "destination if time does not match"),
		},
	}
}

func timeGroupDetails() *model.Schema {
	return &model.Schema{
		Name:        "TimeGroupDetails",
		Description: "Time Group Details",
		ItemName:    "Time Group Detail",
		Repr:        "{time}",
		Table:       "timegroups_details",
		PKField:     "id",
		Layout:      model.LayoutNone,
		Fields: []*model.Definition{
			model.Int("id", ""),
			model.Int("timegroupid", ""),
			model.String("time", "time"),
		},
	}
}

func timeGroup() *model.Schema {
	return &model.Schema{
		Name:        "TimeGroup",
		Description: "Time Groups",
		ItemName:    "Time Group",
		Repr:        "{description}",
		Table:       "timegroups_groups",
		PKField:     "id",
		Layout:      model.LayoutList,
		ConfigParams: func(get func(string) string) map[string]string {
			return map[string]string{"display": "timegroups", "extdisplay": get("id")}
		},
		Fields: []*model.Definition{
			model.Int("id", ""),
			model.String("description", "description"),
			model.ManyToMany("times", "times", "TimeGroupDetails", "timegroupid"),
		},
	}
}

func announcement() *model.Schema {
	return &model.Schema{
		Name:        "Announcement",
		Description: "Announcements",
		ItemName:    "Announcement",
		Repr:        "{description}",
		DestRegex:   "app-announcement-([0-9]+)",
		Table:       "announcement",
		PKField:     "announcement_id",
		Layout:      model.LayoutList,
		ConfigParams: func(get func(string) string) map[string]string {
			return map[string]string{"display": "announcement", "type": "setup", "extdisplay": get("announcement_id")}
		},
		Fields: []*model.Definition{
			model.Int("announcement_id", ""),
			model.String("description", "description"),
			model.ForeignKey("recording_id", "recording", "Recording", map[string]string{"0": "None"}),
			model.Bool("allow_skip", "allow skip", "0", "1"),
			model.Bool("return_ivr", "return to IVR", "0", "1"),
			model.Bool("noanswer", "don't answer channel", "0", "1"),
			model.String("repeat_msg", "repeat"),
			model.Destination("post_dest", "destination after playback"),
		},
	}
}

func miscApplication() *model.Schema {
	return &model.Schema{
		Name:        "MiscApplication",
		Description: "Misc. Applications",
		ItemName:    "Misc Application",
		Repr:        "{description}",
		Table:       "miscapps",
		PKField:     "miscapps_id",
		Layout:      model.LayoutList,
		ConfigParams: func(get func(string) string) map[string]string {
			return map[string]string{"display": "miscapps", "type": "setup", "extdisplay": get("miscapps_id")}
		},
		Fields: []*model.Definition{
			model.Int("miscapps_id", ""),
			model.String("ext", "feature code"),
			model.String("description", "description"),
			model.Destination("dest", "destination"),
		},
	}
}

func customDestination() *model.Schema {
	return &model.Schema{
		Name:        "CustomDestination",
		Description: "Custom Destinations",
		ItemName:    "Custom Destination",
		Repr:        "{description}",
		Table:       "custom_destinations",
		PKField:     "custom_dest",
		Layout:      model.LayoutList,
		ConfigParams: func(get func(string) string) map[string]string {
			return map[string]string{"display": "customdests", "type": "tool", "extdisplay": get("custom_dest")}
		},
		Fields: []*model.Definition{
			model.String("custom_dest", "custom destination"),
			model.String("description", "description"),
			model.String("notes", "notes"),
		},
	}
}

func miscDestination() *model.Schema {
	return &model.Schema{
		Name:        "MiscDestination",
		Description: "Misc. Destinations",
		ItemName:    "Misc Destination",
		Repr:        "{description}",
		DestRegex:   "ext-miscdests,([0-9]+)",
		Table:       "miscdests",
		PKField:     "id",
		Layout:      model.LayoutList,
		ConfigParams: func(get func(string) string) map[string]string {
			return map[string]string{"display": "miscdests", "id": get("id")}
		},
		Fields: []*model.Definition{
			model.Int("id", ""),
			model.String("description", "description"),
			model.Int("destdial", "destination number"),
		},
	}
}

func recording() *model.Schema {
	return &model.Schema{
		Name:        "Recording",
		Description: "Recordings",
		ItemName:    "Recording",
		Repr:        "{displayname}",
		Table:       "recordings",
		PKField:     "id",
		Layout:      model.LayoutList,
		ConfigParams: func(get func(string) string) map[string]string {
			return map[string]string{"display": "recordings", "action": "edit", "usersnum": "", "id": get("id")}
		},
		Fields: []*model.Definition{
			model.Int("id", ""),
			model.String("displayname", "name"),
			model.String("filename", "file path"),
			model.Bool("fcode", "link to feature code", "0", "1"),
			model.Int("fcode_pass", "feature code password"),
		},
	}
}

func customExtension() *model.Schema {
	return &model.Schema{
		Name:        "CustomExtension",
		Description: "Custom Extensions",
		ItemName:    "Custom Extension",
		Repr:        "{custom_exten}",
		Table:       "custom_extensions",
		PKField:     "custom_exten",
		Layout:      model.LayoutList,
		ConfigParams: func(get func(string) string) map[string]string {
			return map[string]string{"display": "customextens", "type": "tool", "extdisplay": get("custom_exten")}
		},
		Fields: []*model.Definition{
			model.String("custom_exten", "custom extension"),
			model.String("description", "description"),
			model.String("notes", "notes"),
		},
	}
}

func featureCode() *model.Schema {
	return &model.Schema{
		Name:        "FeatureCode",
		Description: "Feature Codes",
		ItemName:    "Feature Code",
		Repr:        "{description}",
		Table:       "featurecodes",
		PKField:     "featurename",
		Ordering:    "modulename,description",
		Layout:      model.LayoutTable,
		Fields: []*model.Definition{
			model.String("modulename", "module"),
			model.String("featurename", ""),
			model.String("defaultcode", "default"),
			model.String("customcode", "custom"),
			model.String("description", "description"),
			model.Bool("enabled", "enabled", "0", "1"),
		},
	}
}
