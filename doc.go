// Package carprice predicts used car prices from a tabular dataset with a
// random forest regression pipeline.
//
// The workflow has three steps, each exposed by the pricing package:
//
//   - LoadData reads a delimited file with a header row into a dataset.
//   - PreprocessData drops rows whose price is missing, separates the
//     features from the target and builds the preprocessing plan. Numeric
//     columns are standardized and categorical columns are one-hot encoded,
//     with categories unseen during training encoded as all zeros.
//   - TrainModel holds out 20% of the rows, fits the plan and a 100-tree
//     random forest on the rest (seed 42 for both), and prints the mean
//     absolute error and root mean squared error of the held-out rows.
//
// PredictPrice then prices new rows with the trained pipeline. Columns the
// pipeline was not trained on are ignored; a missing training column is an
// error.
//
// # Quick Start
//
//	ds, err := pricing.LoadData("cars.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pre, err := pricing.PreprocessData(ds)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := pricing.TrainModel(pre.X, pre.Y, pre.Plan)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	newData, _ := dataset.FromRecords([]map[string]any{
//	    {"brand": "Toyota", "model": "Corolla", "year": 2018, "mileage": 25000},
//	}, pre.X.Schema())
//	prices, err := pricing.PredictPrice(res.Pipeline, newData)
//
// The carprice command runs the same steps from a carprice.yaml file.
//
// # Packages
//
//   - dataset: loading, schema inference, missing-target handling
//   - preprocessing: StandardScaler, MinMaxScaler, OneHotEncoder, ColumnTransformer
//   - sklearn/tree: DecisionTreeRegressor
//   - sklearn/ensemble: RandomForestRegressor
//   - sklearn/model_selection: seeded train/test split
//   - pipeline: plan plus estimator steps fitted and applied as one model
//   - metrics: MSE, RMSE, MAE, R², MAPE
//   - pricing: the car price workflow
//   - config: yaml configuration
//   - report: predicted-vs-actual plots
//   - core/model, core/parallel: estimator interfaces, fitted state, worker pool
//   - pkg/errors, pkg/log: error types and structured logging
package carprice
