package listing

import (
	"testing"

	"pawbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleClinics() []models.Clinic {
	return []models.Clinic{
		{ID: "1", Name: "Cat Clinic", Rating: 4.8, Location: "Cairo", Services: []string{models.ServiceMedical}},
		{ID: "2", Name: "Paws Vet", Rating: 4.7, Location: "Giza", Services: []string{models.ServiceMedical, models.ServiceVaccines}},
		{ID: "3", Name: "Happy Tail", Rating: 4.5, Location: "Cairo", Services: []string{models.ServiceGrooming}},
		{ID: "4", Name: "Pet Care Center", Rating: 4.5, Location: "Giza", Services: []string{models.ServiceBoarding}},
		{ID: "5", Name: "Animal Clinic", Rating: 4.2, Location: "Alexandria", Services: []string{models.ServiceMedical}},
		{ID: "6", Name: "Furry Friends", Rating: 4.3, Location: "Giza", Services: []string{models.ServiceTraining}},
	}
}

func names(clinics []models.Clinic) []string {
	out := make([]string, len(clinics))
	for i, c := range clinics {
		out[i] = c.Name
	}
	return out
}

func TestFilterEmptyQueryReturnsAllSorted(t *testing.T) {
	in := sampleClinics()
	out := Filter(in, Options{})

	require.Len(t, out, len(in))
	// Descending by rating; the two 4.5 entries keep their input order.
	assert.Equal(t, []string{
		"Cat Clinic", "Paws Vet", "Happy Tail", "Pet Care Center", "Furry Friends", "Animal Clinic",
	}, names(out))
}

func TestFilterAscending(t *testing.T) {
	out := Filter(sampleClinics(), Options{Sort: SortAscending})
	assert.Equal(t, []string{
		"Animal Clinic", "Furry Friends", "Happy Tail", "Pet Care Center", "Paws Vet", "Cat Clinic",
	}, names(out))
}

func TestFilterQueryMatchesNameOrLocation(t *testing.T) {
	out := Filter(sampleClinics(), Options{Query: "giza"})
	assert.Equal(t, []string{"Paws Vet", "Pet Care Center", "Furry Friends"}, names(out))

	out = Filter(sampleClinics(), Options{Query: "CAT"})
	assert.Equal(t, []string{"Cat Clinic"}, names(out))

	out = Filter(sampleClinics(), Options{Query: "no such place"})
	assert.Empty(t, out)
}

func TestFilterServiceTag(t *testing.T) {
	out := Filter(sampleClinics(), Options{Service: models.ServiceMedical})
	assert.Equal(t, []string{"Cat Clinic", "Paws Vet", "Animal Clinic"}, names(out))

	// Query and tag combine with AND.
	out = Filter(sampleClinics(), Options{Query: "giza", Service: models.ServiceMedical})
	assert.Equal(t, []string{"Paws Vet"}, names(out))
}

func TestFilterLegacyUntaggedClinic(t *testing.T) {
	clinics := []models.Clinic{
		{Name: "Downtown Vet", Rating: 4.0}, // no tags: legacy heuristic
		{Name: "Bird House", Rating: 4.9},
	}
	out := Filter(clinics, Options{Service: models.ServiceMedical})
	require.Len(t, out, 1)
	assert.Equal(t, "Downtown Vet", out[0].Name)
}

func TestFilterIsIdempotent(t *testing.T) {
	opts := Options{Query: "giza"}
	once := Filter(sampleClinics(), opts)
	twice := Filter(once, opts)
	assert.Equal(t, once, twice)
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	in := sampleClinics()
	want := names(in)
	_ = Filter(in, Options{Sort: SortAscending})
	assert.Equal(t, want, names(in))
}

func TestFilterStability(t *testing.T) {
	clinics := []models.Clinic{
		{ID: "a", Name: "A", Rating: 4.5},
		{ID: "b", Name: "B", Rating: 4.5},
		{ID: "c", Name: "C", Rating: 4.5},
	}
	out := Filter(clinics, Options{})
	assert.Equal(t, []string{"A", "B", "C"}, names(out))
}
