// Package model holds the records served by the blog API.
package model

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Company is the employer embedded in an Employee record.
type Company struct {
	Name        string `json:"name"`
	CatchPhrase string `json:"catchPhrase"`
}

// Employee is a user record owning zero or more posts.
type Employee struct {
	ID       int     `json:"id" validate:"required,gt=0"`
	Name     string  `json:"name" validate:"required"`
	Username string  `json:"username"`
	Email    string  `json:"email" validate:"omitempty,email"`
	Company  Company `json:"company"`
}

// Post is an article owned by exactly one employee.
type Post struct {
	ID     int    `json:"id" validate:"required,gt=0"`
	UserID int    `json:"userId" validate:"required,gt=0"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// Comment is a remark attached to one post.
type Comment struct {
	ID     int    `json:"id"`
	PostID int    `json:"postId" validate:"required,gt=0"`
	Name   string `json:"name"`
	Email  string `json:"email" validate:"omitempty,email"`
	Body   string `json:"body"`
}

// Validate checks the fields the renderer depends on.
func (e *Employee) Validate() error {
	if e == nil {
		return fmt.Errorf("employee is nil")
	}
	return validate.Struct(e)
}

// Validate checks the fields the renderer depends on.
func (p *Post) Validate() error {
	if p == nil {
		return fmt.Errorf("post is nil")
	}
	return validate.Struct(p)
}

// Validate checks the fields the renderer depends on.
func (c *Comment) Validate() error {
	if c == nil {
		return fmt.Errorf("comment is nil")
	}
	return validate.Struct(c)
}

// AuthorLine renders the "Author: {name} with {company}" byline.
func (e Employee) AuthorLine() string {
	return fmt.Sprintf("Author: %s with %s", e.Name, e.Company.Name)
}

// FromLine renders the comment's sender line.
func (c Comment) FromLine() string {
	return fmt.Sprintf("From: %s", c.Email)
}
