package dbtest

import (
	"math/rand"
	"sync"

	faker "github.com/go-faker/faker/v4"

	"github.com/demiplane/demiplane/pkg/dbschema"
	"github.com/demiplane/demiplane/pkg/prng"
)

// fakerTag is the FieldSchema.Attributes key a table declaration can set
// to pick the faker generator for a column, e.g.
// fs.Attributes["faker"] = "email". Columns with no tag fall back to a
// generator chosen from the column's Go type.
const fakerTag = "faker"

// generators maps a faker tag to the function producing a string value,
// generalized from cmd/faker_test/faker_test.go's single hand-picked
// UUID case to the full set of faker/v4's scalar string generators a
// dbschema column plausibly needs.
var generators = map[string]func() string{
	"email":      faker.Email,
	"name":       faker.Name,
	"first_name": faker.FirstName,
	"last_name":  faker.LastName,
	"username":   faker.Username,
	"uuid":       faker.UUIDHyphenated,
	"word":       faker.Word,
	"sentence":   faker.Sentence,
	"paragraph":  faker.Paragraph,
	"url":        faker.URL,
	"phone":      faker.Phonenumber,
	"ipv4":       faker.IPv4,
}

var (
	numMu  sync.Mutex
	numGen *rand.Rand
)

// SeedFaker points faker's crypto source at a pkg/prng reader seeded by
// seed, and seeds this package's numeric generator from the same value,
// so a fixture run is fully reproducible given the same seed — the
// deterministic-UUID property cmd/faker_test/faker_test.go demonstrates,
// generalized from one hand-picked seed to any caller-supplied one.
func SeedFaker(seed int64) {
	faker.SetCryptoSource(prng.New(seed))
	numMu.Lock()
	numGen = rand.New(rand.NewSource(seed))
	numMu.Unlock()
}

func nextInt63() int64 {
	numMu.Lock()
	defer numMu.Unlock()
	if numGen == nil {
		numGen = rand.New(rand.NewSource(1))
	}
	return numGen.Int63()
}

// NewFixture builds a Record for table with every column populated
// except a primary key that carries a Default (left null for the
// database to assign); a non-key column with a Default is still
// populated. String columns via the generator named by the
// column's "faker" attribute (or faker.Word if untagged), numeric and
// boolean columns via this package's seeded generator.
func NewFixture(table *dbschema.Table) *dbschema.Record {
	rec := dbschema.NewRecord(table)
	for _, fs := range table.Fields() {
		if fs.PrimaryKey && fs.Default != "" {
			continue // left null; the database assigns it (e.g. serial/identity)
		}
		field, _ := rec.Field(fs.Name)
		fillField(field, fs)
	}
	return rec
}

func fillField(field *dbschema.Field, fs *dbschema.FieldSchema) {
	if fs.GoType == nil {
		dbschema.Set(field, fakerString(fs))
		return
	}
	switch fs.GoType.Kind().String() {
	case "bool":
		dbschema.Set(field, nextInt63()%2 == 0)
	case "int32":
		dbschema.Set(field, int32(nextInt63()%1_000_000))
	case "int64":
		dbschema.Set(field, nextInt63())
	case "float64":
		dbschema.Set(field, float64(nextInt63()%1_000_000)/100.0)
	case "slice":
		dbschema.Set(field, []byte(fakerString(fs)))
	default:
		dbschema.Set(field, fakerString(fs))
	}
}

func fakerString(fs *dbschema.FieldSchema) string {
	if tag, ok := fs.Attributes[fakerTag]; ok {
		if gen, ok := generators[tag]; ok {
			return gen()
		}
	}
	return faker.Word()
}
