package prompts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/malexternalsc/great-expectation-LLM/pkg/apperrors"
)

// Exemplars holds the few-shot examples of the expectation and reasoning stages.
type Exemplars struct {
	Expectation []ExpectationExample `yaml:"expectation"`
	Reasoning   []ReasoningExample   `yaml:"reasoning"`
}

// DefaultExemplars returns the built-in few-shot examples.
func DefaultExemplars() *Exemplars {
	return &Exemplars{
		Expectation: []ExpectationExample{
			{
				UserPrompt: "For column 'processed_timestamp': Ensure the column is required (not null). " +
					"Ensure the column matches the type 'timestamp', Ensure this column exists.",
				Expectations: `expect_column_to_exist(column="processed_timestamp"),
expect_column_values_to_not_be_null(column="processed_timestamp"),
expect_column_values_to_be_of_type(column="processed_timestamp", type_="timestamp")`,
			},
			{
				UserPrompt: "For column 'postal_code': Ensure the column matches the type 'text' and the format 'ZIP'. " +
					"Ensure this column exists.",
				Expectations: `expect_table_columns_to_match_set(column_set=["postal_code"], exact_match=False),
expect_column_values_to_be_of_type(column="postal_code", type_="text"),
expect_column_values_to_match_regex(column="postal_code", regex=r"^\d{5}(-\d{4})?$")`,
			},
		},
		Reasoning: []ReasoningExample{
			{
				Question: "For field 'student_id': Ensure the expect column values to be in set {a,c,v,g,e,ta,b,f}; " +
					"Ensure the expect column parameterized distribution ks test p value to be greater than 0.05; " +
					"Ensure this field is a primary key with unique values and is required (not null).",
				ExpectedAnswer: `expect_column_values_to_be_in_set(column="student_id", value_set=["a", "c", "v", "g", "e", "ta", "b", "f"]), ` +
					`expect_column_parameterized_distribution_ks_test_p_value_to_be_greater_than(column="student_id", threshold=0.05), ` +
					`expect_column_values_to_be_unique(column="student_id"), expect_column_values_to_not_be_null(column="student_id")`,
				Steps: []string{
					"The column 'student_id' must only contain values from the set {a, c, v, g, e, ta, b, f}.",
					"The Kolmogorov-Smirnov test should have a p-value greater than 0.05 to ensure distribution consistency.",
					"The field must be unique, ensuring it acts as a primary key.",
					"The column must not contain null values.",
				},
			},
			{
				Question: "Validate that the `order_date` column adheres to the `YYYY-MM-DD HH:MM:SS` format and does not contain future dates",
				ExpectedAnswer: `expect_column_values_to_match_strftime_format(column="order_date", strftime_format="%Y-%m-%d %H:%M:%S"), ` +
					`expect_column_values_to_be_dateutil_parseable(column="order_date"), ` +
					`expect_column_values_to_be_between(column="order_date", min_value="1900-01-01", max_value="today")`,
				Steps: []string{
					"Values in the order_date column must be strings in the date format `YYYY-MM-DD HH:MM:SS`.",
					"The maximum date in the order_date column must not exceed today's date.",
				},
			},
			{
				Question: "Validate that the `delivery_date` is always later than the `order_date`, and both are in `YYYY-MM-DD` format.",
				ExpectedAnswer: `expect_column_values_to_match_strftime_format(column="delivery_date", strftime_format="%Y-%m-%d"), ` +
					`expect_column_values_to_match_strftime_format(column="order_date", strftime_format="%Y-%m-%d"), ` +
					`expect_column_pair_values_A_to_be_greater_than_B(column_A="delivery_date", column_B="order_date")`,
				Steps: []string{
					"The `delivery_date` must be in the format `YYYY-MM-DD`.",
					"The `order_date` must be in the format `YYYY-MM-DD`.",
					"The value in each row of `delivery_date` must always be greater (after) than `order_date`.",
				},
			},
		},
	}
}

// LoadExemplars reads a YAML override file. Sections absent from the file keep
// the built-in examples; an empty path returns the defaults.
func LoadExemplars(path string) (*Exemplars, error) {
	defaults := DefaultExemplars()
	if path == "" {
		return defaults, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: exemplars file %s", apperrors.ErrInputMissing, path)
		}
		return nil, fmt.Errorf("read exemplars %s: %w", path, err)
	}

	var override Exemplars
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parse exemplars %s: %w", path, err)
	}

	if len(override.Expectation) > 0 {
		defaults.Expectation = override.Expectation
	}
	if len(override.Reasoning) > 0 {
		defaults.Reasoning = override.Reasoning
	}

	for i, ex := range defaults.Reasoning {
		if ex.Question == "" || ex.ExpectedAnswer == "" || len(ex.Steps) == 0 {
			return nil, fmt.Errorf("exemplars %s: reasoning example %d needs question, expected_answer and steps", path, i+1)
		}
	}
	for i, ex := range defaults.Expectation {
		if ex.UserPrompt == "" || ex.Expectations == "" {
			return nil, fmt.Errorf("exemplars %s: expectation example %d needs user_prompt and expectations", path, i+1)
		}
	}

	return defaults, nil
}
