package featureflag

type Flag string

const (
	// FlagExactDedup makes the triangulator deduplicate input points with a
	// collision-free cell map instead of the XOR-combined cell hash.
	FlagExactDedup Flag = "EXACT_DEDUP"

	// FlagStartAtBeginning makes the tailer ingest content already present in
	// the log instead of starting at its end.
	FlagStartAtBeginning Flag = "START_AT_BEGINNING"
)
