package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmployeeValidation(t *testing.T) {
	tests := []struct {
		name     string
		employee *Employee
		wantErr  bool
	}{
		{
			name:     "valid employee",
			employee: &Employee{ID: 7, Name: "Ann", Email: "ann@acme.test"},
		},
		{
			name:     "missing id",
			employee: &Employee{Name: "Ann"},
			wantErr:  true,
		},
		{
			name:     "missing name",
			employee: &Employee{ID: 7},
			wantErr:  true,
		},
		{
			name:     "bad email",
			employee: &Employee{ID: 7, Name: "Ann", Email: "not-an-email"},
			wantErr:  true,
		},
		{
			name:    "nil employee",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.employee.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPostAndCommentValidation(t *testing.T) {
	assert.NoError(t, (&Post{ID: 1, UserID: 7, Title: "T", Body: "B"}).Validate())
	assert.Error(t, (&Post{ID: 1}).Validate())
	assert.NoError(t, (&Comment{PostID: 1, Name: "Bob", Email: "b@x.com", Body: "Nice"}).Validate())
	assert.Error(t, (&Comment{Name: "Bob"}).Validate())
}

func TestDisplayLines(t *testing.T) {
	ann := Employee{ID: 7, Name: "Ann", Company: Company{Name: "Acme", CatchPhrase: "We make stuff"}}
	assert.Equal(t, "Author: Ann with Acme", ann.AuthorLine())
	assert.Equal(t, "From: b@x.com", Comment{Email: "b@x.com"}.FromLine())
}
