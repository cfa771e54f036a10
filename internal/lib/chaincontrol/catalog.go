package chaincontrol

// Catalog is an ordered, read-only list of mountain passes
type Catalog []MountainPass

// DefaultCatalog is the compiled-in list of monitored passes. It is shared by
// all callers and must not be modified.
var DefaultCatalog = Catalog{
	{ID: "donner-pass", Name: "Donner Pass", Highway: "I-80", State: "CA", Lat: 39.3157, Lng: -120.3268, Elevation: 7056,
		Description: "I-80 summit west of Truckee, busiest Sierra freight crossing"},
	{ID: "echo-summit", Name: "Echo Summit", Highway: "US-50", State: "CA", Lat: 38.8130, Lng: -120.0330, Elevation: 7382,
		Description: "US-50 summit above South Lake Tahoe"},
	{ID: "carson-pass", Name: "Carson Pass", Highway: "SR-88", State: "CA", Lat: 38.6946, Lng: -119.9896, Elevation: 8574,
		Description: "SR-88 crossing between Jackson and Minden"},
	{ID: "ebbetts-pass", Name: "Ebbetts Pass", Highway: "SR-4", State: "CA", Lat: 38.5447, Lng: -119.8127, Elevation: 8730,
		Description: "Narrow SR-4 crossing, closed seasonally; not suitable for trucks over 25 ft"},
	{ID: "tejon-pass", Name: "Tejon Pass (Grapevine)", Highway: "I-5", State: "CA", Lat: 34.8003, Lng: -118.8836, Elevation: 4144,
		Description: "I-5 Grapevine between the Central Valley and Los Angeles"},
	{ID: "cajon-pass", Name: "Cajon Pass", Highway: "I-15", State: "CA", Lat: 34.3164, Lng: -117.4500, Elevation: 3777,
		Description: "I-15 between the Inland Empire and the high desert"},
	{ID: "siskiyou-summit", Name: "Siskiyou Summit", Highway: "I-5", State: "OR", Lat: 42.0686, Lng: -122.6031, Elevation: 4310,
		Description: "Highest point on I-5, just north of the California line"},
	{ID: "santiam-pass", Name: "Santiam Pass", Highway: "US-20", State: "OR", Lat: 44.4251, Lng: -121.8720, Elevation: 4817,
		Description: "US-20 Cascade crossing between Albany and Bend"},
	{ID: "government-camp", Name: "Government Camp (Mt. Hood)", Highway: "US-26", State: "OR", Lat: 45.3043, Lng: -121.7545, Elevation: 4000,
		Description: "US-26 on the south flank of Mt. Hood"},
	{ID: "snoqualmie-pass", Name: "Snoqualmie Pass", Highway: "I-90", State: "WA", Lat: 47.4245, Lng: -121.4133, Elevation: 3022,
		Description: "I-90 Cascade crossing east of Seattle"},
	{ID: "stevens-pass", Name: "Stevens Pass", Highway: "US-2", State: "WA", Lat: 47.7462, Lng: -121.0859, Elevation: 4061,
		Description: "US-2 Cascade crossing between Everett and Wenatchee"},
	{ID: "white-pass", Name: "White Pass", Highway: "US-12", State: "WA", Lat: 46.6381, Lng: -121.3906, Elevation: 4500,
		Description: "US-12 crossing south of Mt. Rainier"},
	{ID: "blewett-pass", Name: "Blewett Pass", Highway: "US-97", State: "WA", Lat: 47.3351, Lng: -120.5787, Elevation: 4102,
		Description: "US-97 between Ellensburg and Wenatchee"},
	{ID: "fourth-of-july-pass", Name: "Fourth of July Pass", Highway: "I-90", State: "ID", Lat: 47.5340, Lng: -116.5410, Elevation: 3069,
		Description: "I-90 east of Coeur d'Alene"},
	{ID: "lookout-pass", Name: "Lookout Pass", Highway: "I-90", State: "ID", Lat: 47.4567, Lng: -115.6967, Elevation: 4710,
		Description: "I-90 at the Idaho-Montana line"},
	{ID: "homestake-pass", Name: "Homestake Pass", Highway: "I-90", State: "MT", Lat: 45.9217, Lng: -112.4086, Elevation: 6329,
		Description: "I-90 Continental Divide crossing east of Butte"},
	{ID: "monida-pass", Name: "Monida Pass", Highway: "I-15", State: "MT", Lat: 44.5600, Lng: -112.3080, Elevation: 6823,
		Description: "I-15 at the Montana-Idaho line"},
	{ID: "teton-pass", Name: "Teton Pass", Highway: "WY-22", State: "WY", Lat: 43.4975, Lng: -110.9561, Elevation: 8431,
		Description: "Steep WY-22 grade between Jackson and Victor, 10% grades"},
	{ID: "sherman-summit", Name: "Sherman Summit", Highway: "I-80", State: "WY", Lat: 41.1311, Lng: -105.3986, Elevation: 8640,
		Description: "Highest point on I-80, between Laramie and Cheyenne"},
	{ID: "parleys-summit", Name: "Parleys Summit", Highway: "I-80", State: "UT", Lat: 40.7600, Lng: -111.6300, Elevation: 7120,
		Description: "I-80 canyon climb east of Salt Lake City"},
	{ID: "soldier-summit", Name: "Soldier Summit", Highway: "US-6", State: "UT", Lat: 39.9294, Lng: -111.0808, Elevation: 7477,
		Description: "US-6 between Spanish Fork and Price"},
	{ID: "vail-pass", Name: "Vail Pass", Highway: "I-70", State: "CO", Lat: 39.5306, Lng: -106.2164, Elevation: 10662,
		Description: "I-70 between Vail and Copper Mountain, frequent closures"},
	{ID: "eisenhower-tunnel", Name: "Eisenhower Tunnel", Highway: "I-70", State: "CO", Lat: 39.6797, Lng: -105.9119, Elevation: 11158,
		Description: "I-70 Continental Divide tunnel; hazmat loads routed over Loveland Pass"},
	{ID: "berthoud-pass", Name: "Berthoud Pass", Highway: "US-40", State: "CO", Lat: 39.7981, Lng: -105.7772, Elevation: 11307,
		Description: "US-40 switchbacks between Empire and Winter Park"},
	{ID: "wolf-creek-pass", Name: "Wolf Creek Pass", Highway: "US-160", State: "CO", Lat: 37.4828, Lng: -106.8017, Elevation: 10857,
		Description: "US-160 between Pagosa Springs and South Fork"},
	{ID: "raton-pass", Name: "Raton Pass", Highway: "I-25", State: "NM", Lat: 36.9917, Lng: -104.4825, Elevation: 7834,
		Description: "I-25 at the Colorado-New Mexico line"},
}

// PassByID looks up a pass in the catalog
func (c Catalog) PassByID(id string) (MountainPass, bool) {
	for _, pass := range c {
		if pass.ID == id {
			return pass, true
		}
	}
	return MountainPass{}, false
}

// Passes returns a copy of the catalog safe for callers to modify
func (c Catalog) Passes() []MountainPass {
	out := make([]MountainPass, len(c))
	copy(out, c)
	return out
}
