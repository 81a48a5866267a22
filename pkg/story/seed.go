package story

// SeedChoice is a choice edge in the seed graph, identified by target node
// key rather than a generated id.
type SeedChoice struct {
	Text string
	Next string
}

// SeedNode is a node in the seed graph.
type SeedNode struct {
	ID      string
	Text    string
	Choices []SeedChoice
}

// loopChoice routes a leaf node back to the start of the graph so the
// static story never dead-ends.
var loopChoice = SeedChoice{Text: "Continue your journey", Next: StartNodeID}

// SeedGraph returns the fixed story graph used to populate an empty store.
// Choice order within a node is display order.
func SeedGraph() []SeedNode {
	return []SeedNode{
		{
			ID: StartNodeID,
			Text: "You wake at the edge of the Thornwood, the ashes of last night's " +
				"fire still warm beside you. To the north, a rutted road winds toward " +
				"the walled town of Briarhollow. To the east, the trees close ranks " +
				"around a darker path.",
			Choices: []SeedChoice{
				{Text: "Follow the road to Briarhollow", Next: "briarhollow_gate"},
				{Text: "Take the dark path into the Thornwood", Next: "dark_forest"},
				{Text: "Search your campsite before leaving", Next: "campsite_search"},
			},
		},
		{
			ID: "briarhollow_gate",
			Text: "The gates of Briarhollow stand half-open, and the guard eyes you " +
				"with the weariness of a man who has turned away three peddlers " +
				"already this morning. Beyond him, market stalls crowd the square.",
			Choices: []SeedChoice{
				{Text: "Talk your way past the guard", Next: "market_square"},
				{Text: "Slip around the wall to find another way in", Next: "wall_breach"},
			},
		},
		{
			ID: "market_square",
			Text: "The market smells of bread and wet wool. A hooded stranger " +
				"watches you from beside the well, and when you meet their eyes " +
				"they beckon you closer.",
			Choices: []SeedChoice{
				{Text: "Approach the hooded stranger", Next: "stranger_offer"},
				{Text: "Ignore them and browse the stalls", Next: "market_stalls"},
			},
		},
		{
			ID: "stranger_offer",
			Text: "\"I know what you're looking for,\" the stranger says, pressing a " +
				"cold iron key into your palm. \"The door it opens is under the old " +
				"mill. Whether you use it is your affair.\"",
			Choices: []SeedChoice{
				{Text: "Seek out the old mill", Next: "old_mill"},
				{Text: "Throw the key down the well", Next: "well_omen"},
			},
		},
		{
			ID: "market_stalls",
			Text: "You haggle for supplies and hear a rumor: wolves in the Thornwood " +
				"have gone quiet, all at once, as if something bigger moved in.",
			Choices: []SeedChoice{
				{Text: "Head for the Thornwood to investigate", Next: "dark_forest"},
				loopChoice,
			},
		},
		{
			ID: "wall_breach",
			Text: "Behind the tannery you find a collapsed section of wall, barely " +
				"wide enough to squeeze through. Inside, you drop into a storeroom " +
				"stacked with crates bearing the mark of the old mill.",
			Choices: []SeedChoice{
				{Text: "Pry open a crate", Next: "old_mill"},
				{Text: "Sneak out into the market square", Next: "market_square"},
			},
		},
		{
			ID: "dark_forest",
			Text: "The Thornwood swallows the daylight. Something has dragged deep " +
				"furrows across the path, and the birds have stopped singing. A " +
				"ruined watchtower leans out of the undergrowth ahead.",
			Choices: []SeedChoice{
				{Text: "Climb the ruined watchtower", Next: "watchtower"},
				{Text: "Follow the furrows deeper in", Next: "beast_den"},
			},
		},
		{
			ID: "watchtower",
			Text: "From the top of the tower you see it: a swath of flattened trees " +
				"running from the forest's heart toward Briarhollow, straight as an " +
				"arrow's flight.",
			Choices: []SeedChoice{
				{Text: "Warn the town", Next: "briarhollow_gate"},
				{Text: "Trace the flattened path to its source", Next: "beast_den"},
			},
		},
		{
			ID: "beast_den",
			Text: "The furrows end at a sinkhole breathing cold, mineral air. Far " +
				"below, something vast shifts in the dark, and the iron stink of it " +
				"reaches you even here.",
			Choices: []SeedChoice{
				{Text: "Descend into the sinkhole", Next: "old_mill"},
				loopChoice,
			},
		},
		{
			ID: "old_mill",
			Text: "The old mill crouches over a dry stream bed, its wheel long " +
				"seized. Beneath the floorboards, an iron-banded door waits, its " +
				"lock shaped for a cold iron key.",
			Choices: []SeedChoice{
				loopChoice,
			},
		},
		{
			ID: "campsite_search",
			Text: "Kicking through the ashes you turn up a scrap of oilcloth with a " +
				"charcoal map: the Thornwood, the town, and an X over a mill you " +
				"don't remember drawing.",
			Choices: []SeedChoice{
				{Text: "Make for the mill on the map", Next: "old_mill"},
				loopChoice,
			},
		},
		{
			ID: "well_omen",
			Text: "The key never splashes. After a long silence, the well exhales a " +
				"breath of cold, mineral air, and you decide you are done with " +
				"Briarhollow for today.",
			Choices: []SeedChoice{
				loopChoice,
			},
		},
	}
}
