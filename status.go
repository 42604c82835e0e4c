package ircchat

// StatusItem is a badge or role a chatter may hold.
type StatusItem struct {
	FullName    string
	ShortName   string
	Description string
	Color       string // background color, "#rrggbb"
}

// StatusGroup is a set of mutually exclusive statuses.
// A chatter holds at most one item of each group.
type StatusGroup struct {
	ID    int
	Items []StatusItem
}

// StatusCatalog lists every status the service can report, by group.
type StatusCatalog struct {
	Groups []StatusGroup
}

// Status group ids of the default catalog.
const (
	GroupRole       = 0
	GroupTurbo      = 1
	GroupSubscriber = 2
)

// Item indices within GroupRole.
const (
	RoleModerator = iota
	RoleGlobalModerator
	RoleAdministrator
	RoleStaff
)

// DefaultStatusCatalog returns the statuses chat servers report through message tags.
func DefaultStatusCatalog() *StatusCatalog {
	return &StatusCatalog{Groups: []StatusGroup{
		{ID: GroupRole, Items: []StatusItem{
			{"Moderator", "Mod", "Moderates this channel", "#34ae0a"},
			{"Global Moderator", "GMod", "Moderates all channels", "#34ae0a"},
			{"Administrator", "Admin", "Helps maintain the site", "#faaf19"},
			{"Staff", "Staff", "Twitch staff member", "#200f33"},
		}},
		{ID: GroupTurbo, Items: []StatusItem{
			{"Twitch Turbo", "Turbo", "Subscribes to Twitch Turbo", "#6441a5"},
		}},
		{ID: GroupSubscriber, Items: []StatusItem{
			{"Channel Subscriber", "Sub", "Subscribes to this channel", "#3059BF"},
		}},
	}}
}

// Item returns the status at index item of the group at index group,
// or nil when either is out of range.
func (c *StatusCatalog) Item(group, item int) *StatusItem {
	if c == nil || group < 0 || group >= len(c.Groups) {
		return nil
	}
	items := c.Groups[group].Items
	if item < 0 || item >= len(items) {
		return nil
	}
	return &items[item]
}
